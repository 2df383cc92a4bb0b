package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/tripflow/internal/shared"
)

type memoryRepo struct {
	items    map[uuid.UUID]*Booking
	payments map[uuid.UUID][]Payment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:    map[uuid.UUID]*Booking{},
		payments: map[uuid.UUID][]Payment{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Create(_ context.Context, b Booking) error {
	for _, existing := range m.items {
		if existing.QuotationID == b.QuotationID {
			return ErrAlreadyBooked
		}
	}
	copied := b
	m.items[b.ID] = &copied
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	copied.Payments = append([]Payment(nil), m.payments[id]...)
	return &copied, nil
}

func (m *memoryRepo) GetByQuotation(_ context.Context, quotationID uuid.UUID) (*Booking, error) {
	for _, b := range m.items {
		if b.QuotationID == quotationID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Booking, int, error) {
	var out []Booking
	for _, b := range m.items {
		if filter.PaymentStatus != nil && b.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.BookingStatus != nil && b.BookingStatus != *filter.BookingStatus {
			continue
		}
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, b Booking) error {
	if _, ok := m.items[b.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := b
	copied.Payments = nil
	m.items[b.ID] = &copied
	return nil
}

func (m *memoryRepo) AddPayment(_ context.Context, bookingID uuid.UUID, p Payment) error {
	m.payments[bookingID] = append(m.payments[bookingID], p)
	return nil
}

type stubQuotations struct {
	customerID string
	total      float64
	err        error
}

func (s stubQuotations) AcceptedTotal(context.Context, uuid.UUID) (string, float64, error) {
	return s.customerID, s.total, s.err
}

var ops = shared.Identity{UserID: "ops-1", Name: "Kiran", Role: "operations"}

func newTestService(repo Repository, total float64) *Service {
	svc := NewService(repo, stubQuotations{customerID: "cust-1", total: total}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateFromAcceptedQuotation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), 92000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{
		QuotationID: uuid.New(),
		TravelDate:  "2025-04-14",
	}, ops)
	require.NoError(t, err)
	require.Equal(t, PaymentPending, b.PaymentStatus)
	require.Equal(t, BookingConfirmed, b.BookingStatus)
	require.InDelta(t, 92000, b.TotalAmount, 1e-9)
	require.InDelta(t, 92000, b.Outstanding(), 1e-9)
}

func TestCreateRejectsSecondBookingForQuotation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 92000)

	req := CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}
	_, err := svc.Create(context.Background(), req, ops)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, ops)
	require.ErrorIs(t, err, ErrAlreadyBooked)
}

func TestCapturePaymentWalksPendingPartialPaid(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 92000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}, ops)
	require.NoError(t, err)

	b, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: 40000, Reference: "UTR-1"}, ops)
	require.NoError(t, err)
	require.Equal(t, PaymentPartial, b.PaymentStatus)
	require.InDelta(t, 52000, b.Outstanding(), 1e-9)

	b, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: 52000, Reference: "UTR-2"}, ops)
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, b.PaymentStatus)
	require.InDelta(t, 0, b.Outstanding(), 1e-9)

	got, err := svc.Get(context.Background(), b.ID, ops)
	require.NoError(t, err)
	require.Len(t, got.Payments, 2)
	require.Equal(t, PaymentCapture, got.Payments[0].Kind)
}

func TestCaptureRejectsOverpayment(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 10000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}, ops)
	require.NoError(t, err)

	_, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: 10001}, ops)
	require.ErrorIs(t, err, ErrOverpayment)

	_, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: -5}, ops)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRefundOnlyFromPaid(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 10000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}, ops)
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), b.ID, RefundRequest{Amount: 5000}, ops)
	require.ErrorIs(t, err, ErrRefundUnavailable)

	_, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: 10000}, ops)
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), b.ID, RefundRequest{Amount: 20000}, ops)
	require.ErrorIs(t, err, shared.ErrValidation)

	refunded, err := svc.Refund(context.Background(), b.ID, RefundRequest{Amount: 10000, Reference: "RF-1"}, ops)
	require.NoError(t, err)
	require.Equal(t, PaymentRefunded, refunded.PaymentStatus)

	// Refunded bookings accept no further captures.
	_, err = svc.CapturePayment(context.Background(), b.ID, CapturePaymentRequest{Amount: 100}, ops)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCompletedBookingCannotMoveBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 10000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}, ops)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), b.ID, UpdateStatusRequest{BookingStatus: BookingCompleted, OperationNotes: "trip done"}, ops)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), b.ID, UpdateStatusRequest{BookingStatus: BookingConfirmed}, ops)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCustomerScoping(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, 10000)

	b, err := svc.Create(context.Background(), CreateBookingRequest{QuotationID: uuid.New(), TravelDate: "2025-04-14"}, ops)
	require.NoError(t, err)

	owner := shared.Identity{UserID: "cust-1", Role: "customer"}
	stranger := shared.Identity{UserID: "cust-2", Role: "customer"}

	_, err = svc.Get(context.Background(), b.ID, owner)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, stranger)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, total, err := svc.List(context.Background(), ListFilter{}, stranger)
	require.NoError(t, err)
	require.Zero(t, total)
}
