package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/http/middleware"
	testlog "ecodeli-delivery/internal/testutil"
)

const testID = "9f1c2d3e-4b5a-4c6d-8e7f-001122334455"

type stubDeliveryUsecase struct {
	createFn     func(ctx context.Context, in domain.NewDelivery) (domain.DeliverySnapshot, error)
	getFn        func(ctx context.Context, id string) (domain.DeliverySnapshot, error)
	statusFn     func(ctx context.Context, in domain.StatusChange) (domain.DeliverySnapshot, error)
	trackFn      func(ctx context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error)
	historyFn    func(ctx context.Context, id string) ([]domain.TrackingUpdate, error)
	currentFn    func(ctx context.Context, id string) (domain.CurrentStatus, error)
	locationFn   func(ctx context.Context, id, delivererID string, loc domain.Location) error
	etaFn        func(ctx context.Context, id string) (domain.ETA, error)
	assignFn     func(ctx context.Context, id string, actor domain.Actor) (string, error)
	invalidateFn func(ctx context.Context, id string, actor domain.Actor) error
	validateFn   func(ctx context.Context, in domain.CodeValidation) (domain.ValidationResult, error)
	manualFn     func(ctx context.Context, in domain.ManualValidation) (domain.ValidationResult, error)
}

func (s *stubDeliveryUsecase) CreateDelivery(ctx context.Context, in domain.NewDelivery) (domain.DeliverySnapshot, error) {
	if s.createFn == nil {
		panic("CreateDelivery not expected in this test")
	}
	return s.createFn(ctx, in)
}

func (s *stubDeliveryUsecase) GetDelivery(ctx context.Context, id string) (domain.DeliverySnapshot, error) {
	if s.getFn == nil {
		panic("GetDelivery not expected in this test")
	}
	return s.getFn(ctx, id)
}

func (s *stubDeliveryUsecase) UpdateDeliveryStatus(ctx context.Context, in domain.StatusChange) (domain.DeliverySnapshot, error) {
	if s.statusFn == nil {
		panic("UpdateDeliveryStatus not expected in this test")
	}
	return s.statusFn(ctx, in)
}

func (s *stubDeliveryUsecase) AddTrackingUpdate(ctx context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error) {
	if s.trackFn == nil {
		panic("AddTrackingUpdate not expected in this test")
	}
	return s.trackFn(ctx, in)
}

func (s *stubDeliveryUsecase) GetTrackingHistory(ctx context.Context, id string) ([]domain.TrackingUpdate, error) {
	if s.historyFn == nil {
		panic("GetTrackingHistory not expected in this test")
	}
	return s.historyFn(ctx, id)
}

func (s *stubDeliveryUsecase) GetCurrentStatus(ctx context.Context, id string) (domain.CurrentStatus, error) {
	if s.currentFn == nil {
		panic("GetCurrentStatus not expected in this test")
	}
	return s.currentFn(ctx, id)
}

func (s *stubDeliveryUsecase) UpdateLocation(ctx context.Context, id, delivererID string, loc domain.Location) error {
	if s.locationFn == nil {
		panic("UpdateLocation not expected in this test")
	}
	return s.locationFn(ctx, id, delivererID, loc)
}

func (s *stubDeliveryUsecase) CalculateETA(ctx context.Context, id string) (domain.ETA, error) {
	if s.etaFn == nil {
		panic("CalculateETA not expected in this test")
	}
	return s.etaFn(ctx, id)
}

func (s *stubDeliveryUsecase) AssignValidationCode(ctx context.Context, id string, actor domain.Actor) (string, error) {
	if s.assignFn == nil {
		panic("AssignValidationCode not expected in this test")
	}
	return s.assignFn(ctx, id, actor)
}

func (s *stubDeliveryUsecase) InvalidateValidationCode(ctx context.Context, id string, actor domain.Actor) error {
	if s.invalidateFn == nil {
		panic("InvalidateValidationCode not expected in this test")
	}
	return s.invalidateFn(ctx, id, actor)
}

func (s *stubDeliveryUsecase) ValidateDeliveryWithCode(ctx context.Context, in domain.CodeValidation) (domain.ValidationResult, error) {
	if s.validateFn == nil {
		panic("ValidateDeliveryWithCode not expected in this test")
	}
	return s.validateFn(ctx, in)
}

func (s *stubDeliveryUsecase) ManualValidation(ctx context.Context, in domain.ManualValidation) (domain.ValidationResult, error) {
	if s.manualFn == nil {
		panic("ManualValidation not expected in this test")
	}
	return s.manualFn(ctx, in)
}

var (
	clientActor  = domain.Actor{ID: "client-1", Role: domain.RoleClient}
	courierActor = domain.Actor{ID: "courier-1", Role: domain.RoleCourier}
	adminActor   = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	ts           = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

// serve routes a single request through a chi router so URL params resolve.
func serve(t *testing.T, h *DeliveryHandler, method, pattern, target, body string, actor *domain.Actor, fn func(*DeliveryHandler) http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Method(method, pattern, fn(h))

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func sampleDelivery() domain.Delivery {
	code := "482913"
	return domain.Delivery{
		ID:             testID,
		AnnouncementID: "ann-1",
		DelivererID:    "courier-1",
		ClientID:       "client-1",
		Status:         domain.StatusInTransit,
		Type:           domain.TypeComplete,
		ValidationCode: &code,
		PickupAddress:  domain.Address{Street: "1 rue A", City: "Paris", PostalCode: "75001", Country: "FR"},
		DeliveryAddress: domain.Address{
			Street: "2 rue B", City: "Lyon", PostalCode: "69001", Country: "FR",
		},
		ScheduledPickupAt:   ts,
		EstimatedDeliveryAt: ts.Add(4 * time.Hour),
		Pricing: domain.Pricing{
			BasePrice:    decimal.RequireFromString("30"),
			DeliveryFee:  decimal.RequireFromString("10"),
			InsuranceFee: decimal.RequireFromString("2.5"),
			UrgentFee:    decimal.Zero,
			TotalPrice:   decimal.RequireFromString("42.5"),
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestDeliveryHandler_Create_OK(t *testing.T) {
	t.Parallel()

	body := `{
        "announcement_id": "ann-1",
        "deliverer_id": "courier-1",
        "type": "COMPLETE",
        "pickup_address": {"street": "1 rue A", "city": "Paris", "postal_code": "75001", "country": "FR"},
        "delivery_address": {"street": "2 rue B", "city": "Lyon", "postal_code": "69001", "country": "FR"},
        "scheduled_pickup_at": "2026-03-01T10:00:00Z",
        "estimated_delivery_at": "2026-03-01T14:00:00Z",
        "pricing": {"base_price": "30", "delivery_fee": 10, "insurance_fee": "2.50", "urgent_fee": "0", "total_price": "42.50"}
    }`

	uc := &stubDeliveryUsecase{
		createFn: func(_ context.Context, in domain.NewDelivery) (domain.DeliverySnapshot, error) {
			require.Equal(t, "ann-1", in.AnnouncementID)
			require.Equal(t, domain.TypeComplete, in.Type)
			require.Equal(t, "Lyon", in.DeliveryAddress.City)
			require.True(t, in.Pricing.TotalPrice.Equal(decimal.RequireFromString("42.5")))
			require.Equal(t, courierActor, in.Actor)

			d := sampleDelivery()
			d.Status = domain.StatusPending
			d.ValidationCode = nil
			return domain.DeliverySnapshot{
				Delivery:      d,
				NextAction:    "Accept the delivery",
				TimeRemaining: 4 * time.Hour,
			}, nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPost, "/deliveries", "/deliveries", body, &courierActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.Create })

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/deliveries/"+testID, rr.Header().Get("Location"))
	assert.Contains(t, rr.Body.String(), `"status":"PENDING"`)
	assert.Contains(t, rr.Body.String(), `"total_price":"42.50"`)
	assert.Contains(t, rr.Body.String(), `"time_remaining_seconds":14400`)
	assert.Contains(t, rr.Body.String(), `"has_validation_code":false`)
}

func TestDeliveryHandler_Create_RequiresActor(t *testing.T) {
	t.Parallel()

	rr := serve(t, NewDeliveryHandler(nil, &stubDeliveryUsecase{}), http.MethodPost, "/deliveries", "/deliveries", `{}`, nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.Create })

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.JSONEq(t, `{"error":"actor required","kind":"unauthorized"}`, rr.Body.String())
}

func TestDeliveryHandler_Create_BadJSON(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"malformed":     `{"announcement_id":`,
		"unknown field": `{"announcement":"x"}`,
		"trailing":      `{} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rr := serve(t, NewDeliveryHandler(nil, &stubDeliveryUsecase{}), http.MethodPost, "/deliveries", "/deliveries", body, &courierActor,
				func(h *DeliveryHandler) http.HandlerFunc { return h.Create })
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestDeliveryHandler_Get_NeverExposesCode(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		getFn: func(_ context.Context, id string) (domain.DeliverySnapshot, error) {
			require.Equal(t, testID, id)
			return domain.DeliverySnapshot{
				Delivery: sampleDelivery(),
				RecentTracking: []domain.TrackingUpdate{
					{ID: "u2", DeliveryID: testID, Status: domain.StatusInTransit, Message: "In transit", Timestamp: ts.Add(time.Hour)},
				},
			}, nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodGet, "/deliveries/{id}", "/deliveries/"+testID, "", nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.Get })

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), "482913")
	assert.Contains(t, rr.Body.String(), `"has_validation_code":true`)
	assert.Contains(t, rr.Body.String(), `"recent_tracking":[{"id":"u2"`)
}

func TestDeliveryHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		retryAfter string
	}{
		{"not found", fmt.Errorf("get: %w", apperr.ErrNotFound), http.StatusNotFound, "not_found", ""},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden, "forbidden", ""},
		{"transition", apperr.NewTransitionError("PENDING", "DELIVERED"), http.StatusConflict, "invalid_transition", ""},
		{"state", apperr.ErrInvalidState, http.StatusConflict, "invalid_state", ""},
		{"no code", apperr.ErrNoCodeAssigned, http.StatusConflict, "no_code_assigned", ""},
		{"mismatch", apperr.ErrCodeMismatch, http.StatusUnprocessableEntity, "code_mismatch", ""},
		{"invalid", apperr.ErrInvalid, http.StatusBadRequest, "validation_error", ""},
		{"throttled", apperr.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts", "60"},
		{"transient", apperr.Transient(errors.New("gateway down")), http.StatusServiceUnavailable, "transient", "1"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			uc := &stubDeliveryUsecase{
				statusFn: func(context.Context, domain.StatusChange) (domain.DeliverySnapshot, error) {
					return domain.DeliverySnapshot{}, tc.err
				},
			}
			rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPatch, "/deliveries/{id}/status", "/deliveries/"+testID+"/status",
				`{"status":"DELIVERED"}`, &courierActor,
				func(h *DeliveryHandler) http.HandlerFunc { return h.UpdateStatus })

			require.Equal(t, tc.wantStatus, rr.Code)
			require.Equal(t, tc.retryAfter, rr.Header().Get("Retry-After"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, tc.wantKind, resp.Kind)
			if tc.wantStatus == http.StatusInternalServerError {
				require.Equal(t, "internal error", resp.Error)
			}
		})
	}
}

func TestDeliveryHandler_UpdateStatus_PassesChange(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		statusFn: func(_ context.Context, in domain.StatusChange) (domain.DeliverySnapshot, error) {
			require.Equal(t, domain.StatusChange{
				DeliveryID:  testID,
				Status:      domain.StatusPickedUp,
				Location:    &domain.Location{Lat: 48.85, Lng: 2.35},
				Notes:       "parcel ok",
				ProofPhotos: []string{"p1.jpg"},
				Actor:       courierActor,
			}, in)
			d := sampleDelivery()
			d.Status = domain.StatusPickedUp
			return domain.DeliverySnapshot{Delivery: d, NextAction: "Start transit"}, nil
		},
	}

	body := `{"status":"PICKED_UP","location":{"lat":48.85,"lng":2.35},"notes":"parcel ok","proof_photos":["p1.jpg"]}`
	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPatch, "/deliveries/{id}/status", "/deliveries/"+testID+"/status", body, &courierActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.UpdateStatus })

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"next_action":"Start transit"`)
}

func TestDeliveryHandler_Tracking(t *testing.T) {
	t.Parallel()

	delay := 10
	uc := &stubDeliveryUsecase{
		trackFn: func(_ context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error) {
			require.Equal(t, testID, in.DeliveryID)
			require.Equal(t, "traffic", in.Message)
			require.Equal(t, &delay, in.Delay)
			require.Equal(t, courierActor, in.Actor)
			return domain.TrackingUpdate{ID: "u1", DeliveryID: testID, Status: domain.StatusInTransit, Message: "traffic", Delay: &delay, Timestamp: ts}, nil
		},
		historyFn: func(_ context.Context, id string) ([]domain.TrackingUpdate, error) {
			return []domain.TrackingUpdate{
				{ID: "u2", Status: domain.StatusInTransit, Timestamp: ts.Add(time.Minute)},
				{ID: "u1", Status: domain.StatusInTransit, Timestamp: ts},
			}, nil
		},
		currentFn: func(_ context.Context, id string) (domain.CurrentStatus, error) {
			return domain.CurrentStatus{Status: domain.StatusDelivered, EstimatedDelivery: ts, IsCompleted: true}, nil
		},
	}
	h := NewDeliveryHandler(nil, uc)

	rr := serve(t, h, http.MethodPost, "/deliveries/{id}/tracking", "/deliveries/"+testID+"/tracking",
		`{"message":"traffic","delay":10}`, &courierActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.AddTracking })
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"delay":10`)

	rr = serve(t, h, http.MethodGet, "/deliveries/{id}/tracking", "/deliveries/"+testID+"/tracking", "", nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.History })
	require.Equal(t, http.StatusOK, rr.Code)
	var list []trackingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	require.Equal(t, "u2", list[0].ID)

	rr = serve(t, h, http.MethodGet, "/deliveries/{id}/tracking/current", "/deliveries/"+testID+"/tracking/current", "", nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.CurrentStatus })
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"DELIVERED","last_update":null,"estimated_delivery":"2026-03-01T10:00:00Z","is_completed":true}`, rr.Body.String())
}

func TestDeliveryHandler_UpdateLocation_UsesCaller(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		locationFn: func(_ context.Context, id, delivererID string, loc domain.Location) error {
			require.Equal(t, testID, id)
			require.Equal(t, "courier-1", delivererID)
			require.Equal(t, domain.Location{Lat: 45.76, Lng: 4.83, Address: "Lyon"}, loc)
			return nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPut, "/deliveries/{id}/location", "/deliveries/"+testID+"/location",
		`{"lat":45.76,"lng":4.83,"address":"Lyon"}`, &courierActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.UpdateLocation })

	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestDeliveryHandler_ETA(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		etaFn: func(context.Context, string) (domain.ETA, error) {
			return domain.ETA{ETA: ts, Confidence: domain.ConfidenceMedium}, nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodGet, "/deliveries/{id}/eta", "/deliveries/"+testID+"/eta", "", nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.ETA })

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"eta":"2026-03-01T10:00:00Z","confidence":"MEDIUM"}`, rr.Body.String())
}

func TestDeliveryHandler_CodeManagement(t *testing.T) {
	t.Parallel()

	invalidated := false
	uc := &stubDeliveryUsecase{
		assignFn: func(_ context.Context, id string, actor domain.Actor) (string, error) {
			require.Equal(t, clientActor, actor)
			return "123456", nil
		},
		invalidateFn: func(_ context.Context, id string, actor domain.Actor) error {
			invalidated = true
			return nil
		},
	}
	h := NewDeliveryHandler(nil, uc)

	rr := serve(t, h, http.MethodPost, "/deliveries/{id}/validation-code", "/deliveries/"+testID+"/validation-code", "", &clientActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.AssignCode })
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"validation_code":"123456"}`, rr.Body.String())

	rr = serve(t, h, http.MethodDelete, "/deliveries/{id}/validation-code", "/deliveries/"+testID+"/validation-code", "", &clientActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.InvalidateCode })
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.True(t, invalidated)
}

func TestDeliveryHandler_Validate_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		validateFn: func(_ context.Context, in domain.CodeValidation) (domain.ValidationResult, error) {
			require.Equal(t, domain.CodeValidation{
				DeliveryID:     testID,
				ValidationCode: "482913",
				ClientID:       "client-1",
				Signature:      "sig",
			}, in)
			d := sampleDelivery()
			d.Status = domain.StatusDelivered
			d.ValidationCode = nil
			return domain.ValidationResult{Delivery: d, PaymentReleased: true, Amount: decimal.RequireFromString("42.5")}, nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPost, "/deliveries/{id}/validate", "/deliveries/"+testID+"/validate",
		`{"validation_code":"482913","signature":"sig"}`, &clientActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.Validate })

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"payment_released":true`)
	assert.Contains(t, rr.Body.String(), `"amount":"42.50"`)
	assert.Contains(t, rr.Body.String(), `"status":"DELIVERED"`)
}

func TestDeliveryHandler_Validate_RejectsBadFormatAtBoundary(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		rr := serve(t, NewDeliveryHandler(nil, &stubDeliveryUsecase{}), http.MethodPost, "/deliveries/{id}/validate", "/deliveries/"+testID+"/validate",
			`{"validation_code":"`+code+`"}`, &clientActor,
			func(h *DeliveryHandler) http.HandlerFunc { return h.Validate })

		require.Equal(t, http.StatusBadRequest, rr.Code, code)
		require.JSONEq(t, `{"error":"validation code must be 6 digits","kind":"validation_error"}`, rr.Body.String())
	}
}

func TestDeliveryHandler_ValidateManual(t *testing.T) {
	t.Parallel()

	uc := &stubDeliveryUsecase{
		manualFn: func(_ context.Context, in domain.ManualValidation) (domain.ValidationResult, error) {
			require.Equal(t, domain.ManualValidation{DeliveryID: testID, Actor: adminActor, Reason: "client unreachable"}, in)
			return domain.ValidationResult{Delivery: sampleDelivery(), PaymentReleased: false, Amount: decimal.Zero}, nil
		},
	}

	rr := serve(t, NewDeliveryHandler(nil, uc), http.MethodPost, "/deliveries/{id}/validate/manual", "/deliveries/"+testID+"/validate/manual",
		`{"reason":"client unreachable"}`, &adminActor,
		func(h *DeliveryHandler) http.HandlerFunc { return h.ValidateManual })

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"payment_released":false`)
	assert.Contains(t, rr.Body.String(), `"amount":"0.00"`)
}

func TestDeliveryHandler_InternalErrorIsLogged(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	uc := &stubDeliveryUsecase{
		getFn: func(context.Context, string) (domain.DeliverySnapshot, error) {
			return domain.DeliverySnapshot{}, errors.New("pool closed")
		},
	}

	rr := serve(t, NewDeliveryHandler(rec.Logger(), uc), http.MethodGet, "/deliveries/{id}", "/deliveries/"+testID, "", nil,
		func(h *DeliveryHandler) http.HandlerFunc { return h.Get })

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "pool closed")
	require.True(t, rec.Has("error", "request failed"))
}
