package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/ports/deliverytx"
	"ecodeli-delivery/internal/service/delivery"
)

const (
	announcementID = "ann-1"
	clientID       = "client-1"
	courierID      = "courier-1"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type state struct {
	deliveries    map[string]domain.Delivery
	announcements map[string]domain.Announcement
	payments      map[string]domain.Payment
	tracking      []domain.TrackingUpdate
	outbox        []domain.OutboxEvent
	attempts      []domain.ValidationAttempt
}

func (s *state) clone() *state {
	out := &state{
		deliveries:    make(map[string]domain.Delivery, len(s.deliveries)),
		announcements: make(map[string]domain.Announcement, len(s.announcements)),
		payments:      make(map[string]domain.Payment, len(s.payments)),
		tracking:      append([]domain.TrackingUpdate(nil), s.tracking...),
		outbox:        append([]domain.OutboxEvent(nil), s.outbox...),
		attempts:      append([]domain.ValidationAttempt(nil), s.attempts...),
	}
	for k, v := range s.deliveries {
		out.deliveries[k] = v
	}
	for k, v := range s.announcements {
		out.announcements[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	return out
}

// memStore is a transactional in-memory store. Transactions are serialized,
// which stands in for the row locks, and discarded on error.
type memStore struct {
	mu  sync.Mutex
	st  *state
	txs int
}

func newMemStore() *memStore {
	return &memStore{st: &state{
		deliveries:    map[string]domain.Delivery{},
		announcements: map[string]domain.Announcement{announcementID: {ID: announcementID, AuthorID: clientID}},
		payments:      map[string]domain.Payment{},
	}}
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.st.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	m.st = work
	return nil
}

func (m *memStore) delivery(t *testing.T, id string) domain.Delivery {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.st.deliveries[id]
	require.True(t, ok, "delivery %s", id)
	return d
}

func (m *memStore) payment(deliveryID string) domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.payments[deliveryID]
}

func (m *memStore) trackingOf(id string) []domain.TrackingUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TrackingUpdate
	for _, u := range m.st.tracking {
		if u.DeliveryID == id {
			out = append(out, u)
		}
	}
	return out
}

func (m *memStore) events() []domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutboxEvent(nil), m.st.outbox...)
}

func (m *memStore) auditLog() []domain.ValidationAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ValidationAttempt(nil), m.st.attempts...)
}

func (m *memStore) put(d domain.Delivery) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deliveries[d.ID] = d
}

func (m *memStore) putPayment(p domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.payments[p.DeliveryID] = p
}

type memTx struct {
	st *state
}

func (tx *memTx) GetForUpdate(_ context.Context, id string) (*domain.Delivery, error) {
	return tx.get(id), nil
}

func (tx *memTx) Get(_ context.Context, id string) (*domain.Delivery, error) {
	return tx.get(id), nil
}

func (tx *memTx) get(id string) *domain.Delivery {
	d, ok := tx.st.deliveries[id]
	if !ok {
		return nil
	}
	return &d
}

func (tx *memTx) GetAnnouncement(_ context.Context, id string) (*domain.Announcement, error) {
	a, ok := tx.st.announcements[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (tx *memTx) InsertDelivery(_ context.Context, d *domain.Delivery) error {
	if _, ok := tx.st.deliveries[d.ID]; ok {
		return errors.New("duplicate delivery")
	}
	tx.st.deliveries[d.ID] = *d
	return nil
}

func (tx *memTx) UpdateDelivery(_ context.Context, d *domain.Delivery) error {
	if _, ok := tx.st.deliveries[d.ID]; !ok {
		return errors.New("update of unknown delivery")
	}
	tx.st.deliveries[d.ID] = *d
	return nil
}

func (tx *memTx) InsertTrackingUpdate(_ context.Context, u *domain.TrackingUpdate) error {
	tx.st.tracking = append(tx.st.tracking, *u)
	return nil
}

func (tx *memTx) ListTrackingUpdates(_ context.Context, deliveryID string, limit int) ([]domain.TrackingUpdate, error) {
	var out []domain.TrackingUpdate
	for i := len(tx.st.tracking) - 1; i >= 0; i-- {
		if tx.st.tracking[i].DeliveryID != deliveryID {
			continue
		}
		out = append(out, tx.st.tracking[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (tx *memTx) GetPaymentForUpdate(_ context.Context, deliveryID string) (*domain.Payment, error) {
	p, ok := tx.st.payments[deliveryID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (tx *memTx) UpdatePayment(_ context.Context, p *domain.Payment) error {
	tx.st.payments[p.DeliveryID] = *p
	return nil
}

func (tx *memTx) InsertOutboxEvent(_ context.Context, e *domain.OutboxEvent) error {
	tx.st.outbox = append(tx.st.outbox, *e)
	return nil
}

func (tx *memTx) InsertValidationAttempt(_ context.Context, a *domain.ValidationAttempt) error {
	tx.st.attempts = append(tx.st.attempts, *a)
	return nil
}

// stubReleaser releases every payment and counts the calls.
type stubReleaser struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubReleaser) Release(_ context.Context, p domain.Payment) (domain.PaymentReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return domain.PaymentReceipt{}, r.err
	}
	return domain.PaymentReceipt{ExternalRef: "ext-" + p.ID, ReleasedAt: fixedNow}, nil
}

func (r *stubReleaser) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func fixedCode(code string) delivery.CodeGenerator {
	return func() (string, error) { return code, nil }
}

func newService(store deliverytx.Runner, payments delivery.PaymentReleaser, opts ...delivery.Option) *delivery.Service {
	opts = append([]delivery.Option{delivery.WithClock(func() time.Time { return fixedNow })}, opts...)
	return delivery.NewService(store, payments, 3*time.Second, logx.Nop(), opts...)
}

func system() domain.Actor { return domain.SystemActor("scheduler") }

func validNewDelivery() domain.NewDelivery {
	return domain.NewDelivery{
		AnnouncementID: announcementID,
		DelivererID:    courierID,
		Type:           domain.TypeComplete,
		PickupAddress: domain.Address{
			Street: "12 rue de Rivoli", City: "Paris", PostalCode: "75004", Country: "FR",
		},
		DeliveryAddress: domain.Address{
			Street: "3 place Bellecour", City: "Lyon", PostalCode: "69002", Country: "FR",
			Coordinates: &domain.Coordinates{Lat: 45.757, Lng: 4.832},
		},
		ScheduledPickupAt:   fixedNow.Add(time.Hour),
		EstimatedDeliveryAt: fixedNow.Add(6 * time.Hour),
		Pricing: domain.Pricing{
			BasePrice:    decimal.RequireFromString("30.00"),
			DeliveryFee:  decimal.RequireFromString("10.00"),
			InsuranceFee: decimal.RequireFromString("2.50"),
			UrgentFee:    decimal.Zero,
			TotalPrice:   decimal.RequireFromString("42.50"),
		},
		Actor: system(),
	}
}

// createDelivery creates a delivery and escrows its payment.
func createDelivery(t *testing.T, svc *delivery.Service, store *memStore) domain.Delivery {
	t.Helper()
	snap, err := svc.CreateDelivery(context.Background(), validNewDelivery())
	require.NoError(t, err)
	store.putPayment(domain.Payment{
		ID:         "pay-" + snap.Delivery.ID,
		DeliveryID: snap.Delivery.ID,
		Amount:     snap.Delivery.Pricing.TotalPrice,
		Currency:   "EUR",
		Status:     domain.PaymentPending,
	})
	return snap.Delivery
}

// advance walks a delivery through the given statuses as the system actor.
func advance(t *testing.T, svc *delivery.Service, id string, statuses ...domain.DeliveryStatus) {
	t.Helper()
	for _, st := range statuses {
		_, err := svc.UpdateDeliveryStatus(context.Background(), domain.StatusChange{
			DeliveryID: id,
			Status:     st,
			Actor:      system(),
		})
		require.NoError(t, err, "transition to %s", st)
	}
}

// seeded stores a delivery directly in the given status.
func seeded(store *memStore, id string, status domain.DeliveryStatus, code *string) domain.Delivery {
	d := domain.Delivery{
		ID:                  id,
		AnnouncementID:      announcementID,
		DelivererID:         courierID,
		ClientID:            clientID,
		Status:              status,
		Type:                domain.TypeComplete,
		ValidationCode:      code,
		ScheduledPickupAt:   fixedNow.Add(-2 * time.Hour),
		EstimatedDeliveryAt: fixedNow.Add(2 * time.Hour),
		CreatedAt:           fixedNow.Add(-3 * time.Hour),
		UpdatedAt:           fixedNow.Add(-3 * time.Hour),
	}
	store.put(d)
	return d
}

func strPtr(s string) *string { return &s }
