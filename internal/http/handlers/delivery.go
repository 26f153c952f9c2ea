package handlers

import (
	"net/http"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
)

// DeliveryHandler handles HTTP requests for delivery resources.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &DeliveryHandler{usecase: uc, logger: logger}
}

func (h *DeliveryHandler) deliveryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeErrorKind(h.logger, w, r, http.StatusBadRequest, "invalid id", "validation_error")
		return "", false
	}
	return id, true
}

// Create handles POST /deliveries.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req createDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	snap, err := h.usecase.CreateDelivery(r.Context(), req.toModel(actor))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/deliveries/"+snap.Delivery.ID)
	writeJSON(h.logger, w, r, http.StatusCreated, snapshotToResponse(snap))
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}

	snap, err := h.usecase.GetDelivery(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, snapshotToResponse(snap))
}

// UpdateStatus handles PATCH /deliveries/{id}/status.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	snap, err := h.usecase.UpdateDeliveryStatus(r.Context(), req.toModel(id, actor))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, snapshotToResponse(snap))
}

// AddTracking handles POST /deliveries/{id}/tracking.
func (h *DeliveryHandler) AddTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req addTrackingRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	u, err := h.usecase.AddTrackingUpdate(r.Context(), req.toModel(id, actor))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, trackingToResponse(u))
}

// History handles GET /deliveries/{id}/tracking.
func (h *DeliveryHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}

	list, err := h.usecase.GetTrackingHistory(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, trackingListToResponse(list))
}

// CurrentStatus handles GET /deliveries/{id}/tracking/current.
func (h *DeliveryHandler) CurrentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}

	cur, err := h.usecase.GetCurrentStatus(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, currentStatusToResponse(cur))
}

// UpdateLocation handles PUT /deliveries/{id}/location.
// The caller must be the assigned courier.
func (h *DeliveryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req domain.Location
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	if err := h.usecase.UpdateLocation(r.Context(), id, actor.ID, req); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ETA handles GET /deliveries/{id}/eta.
func (h *DeliveryHandler) ETA(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}

	eta, err := h.usecase.CalculateETA(r.Context(), id)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, etaResponse{ETA: eta.ETA, Confidence: eta.Confidence})
}

// AssignCode handles POST /deliveries/{id}/validation-code.
func (h *DeliveryHandler) AssignCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	code, err := h.usecase.AssignValidationCode(r.Context(), id, actor)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(h.logger, w, r, http.StatusCreated, codeResponse{ValidationCode: code})
}

// InvalidateCode handles DELETE /deliveries/{id}/validation-code.
func (h *DeliveryHandler) InvalidateCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}

	if err := h.usecase.InvalidateValidationCode(r.Context(), id, actor); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validate handles POST /deliveries/{id}/validate.
func (h *DeliveryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req validateRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if !domain.ValidateCodeFormat(req.ValidationCode) {
		writeErrorKind(h.logger, w, r, http.StatusBadRequest, "validation code must be 6 digits", "validation_error")
		return
	}

	res, err := h.usecase.ValidateDeliveryWithCode(r.Context(), req.toModel(id, actor))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, validationToResponse(res))
}

// ValidateManual handles POST /deliveries/{id}/validate/manual.
func (h *DeliveryHandler) ValidateManual(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deliveryID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(h.logger, w, r)
	if !ok {
		return
	}
	var req manualValidationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.usecase.ManualValidation(r.Context(), domain.ManualValidation{
		DeliveryID: id,
		Actor:      actor,
		Reason:     req.Reason,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, validationToResponse(res))
}
