package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, b Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, int, error)
	Update(ctx context.Context, b Booking) error
	AddPayment(ctx context.Context, bookingID uuid.UUID, p Payment) error
}

// QuotationSource resolves accepted quotations into booking inputs.
// Implemented by the quotations service.
type QuotationSource interface {
	AcceptedTotal(ctx context.Context, quotationID uuid.UUID) (customerID string, total float64, err error)
}

// UserDirectory resolves display names for denormalisation onto bookings.
type UserDirectory interface {
	NameFor(ctx context.Context, userID string) (string, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service enforces booking and payment rules.
type Service struct {
	repo       Repository
	quotations QuotationSource
	users      UserDirectory
	audit      *shared.AuditLogger
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, quotations QuotationSource, users UserDirectory, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		quotations: quotations,
		users:      users,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
	}
}

// Create converts an accepted quotation into a booking at the selected
// option's sell price. One booking per quotation.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest, actor shared.Identity) (*Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	customerID, total, err := s.quotations.AcceptedTotal(ctx, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("resolve quotation: %w", err)
	}
	if existing, err := s.repo.GetByQuotation(ctx, req.QuotationID); err == nil && existing != nil {
		return nil, ErrAlreadyBooked
	}

	customerName := ""
	if s.users != nil {
		if name, err := s.users.NameFor(ctx, customerID); err == nil {
			customerName = name
		}
	}

	b := Booking{
		ID:            uuid.New(),
		QuotationID:   req.QuotationID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		TotalAmount:   total,
		PaymentStatus: PaymentPending,
		BookingStatus: BookingConfirmed,
		TravelDate:    req.TravelDate,
		CreatedAt:     s.now().UTC(),
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.recordAudit(ctx, actor, "booking.create", b.ID, map[string]any{"quotation_id": req.QuotationID.String()})
	return &b, nil
}

// Get returns a booking visible to the actor. Customers only see their own.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor shared.Identity) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == "customer" && b.CustomerID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

// List returns bookings scoped to the actor's role.
func (s *Service) List(ctx context.Context, filter ListFilter, actor shared.Identity) ([]Booking, int, error) {
	if actor.Role == "customer" {
		filter.CustomerID = &actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// CapturePayment records money received. Captures never exceed the
// outstanding amount; full collection moves the booking to paid.
func (s *Service) CapturePayment(ctx context.Context, id uuid.UUID, req CapturePaymentRequest, actor shared.Identity) (*Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	var updated *Booking
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		b, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.BookingStatus == BookingCancelled {
			return fmt.Errorf("%w: booking is cancelled", shared.ErrConflict)
		}
		if b.PaymentStatus == PaymentRefunded {
			return fmt.Errorf("%w: booking was refunded", shared.ErrConflict)
		}
		if req.Amount > b.Outstanding() {
			return ErrOverpayment
		}

		b.AmountPaid += req.Amount
		if b.AmountPaid >= b.TotalAmount {
			b.PaymentStatus = PaymentPaid
		} else {
			b.PaymentStatus = PaymentPartial
		}
		b.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, *b); err != nil {
			return fmt.Errorf("persist capture: %w", err)
		}
		if err := repo.AddPayment(ctx, b.ID, Payment{
			Kind:       PaymentCapture,
			Amount:     req.Amount,
			Reference:  req.Reference,
			RecordedBy: actor.UserID,
			CreatedAt:  s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("record capture: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "booking.capture", id, map[string]any{"amount": req.Amount})
	return updated, nil
}

// Refund returns money on a paid booking, bounded by the amount collected.
func (s *Service) Refund(ctx context.Context, id uuid.UUID, req RefundRequest, actor shared.Identity) (*Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	var updated *Booking
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		b, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.PaymentStatus != PaymentPaid {
			return ErrRefundUnavailable
		}
		if req.Amount > b.AmountPaid {
			return fmt.Errorf("%w: refund exceeds amount paid", shared.ErrValidation)
		}

		b.AmountPaid -= req.Amount
		b.PaymentStatus = PaymentRefunded
		b.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, *b); err != nil {
			return fmt.Errorf("persist refund: %w", err)
		}
		if err := repo.AddPayment(ctx, b.ID, Payment{
			Kind:       PaymentRefund,
			Amount:     req.Amount,
			Reference:  req.Reference,
			RecordedBy: actor.UserID,
			CreatedAt:  s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("record refund: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "booking.refund", id, map[string]any{"amount": req.Amount})
	return updated, nil
}

// UpdateStatus moves a booking between operational states.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, actor shared.Identity) (*Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus == BookingCompleted && req.BookingStatus != BookingCompleted {
		return nil, fmt.Errorf("%w: completed bookings cannot move back", shared.ErrConflict)
	}
	b.BookingStatus = req.BookingStatus
	if req.OperationNotes != "" {
		b.OperationNotes = req.OperationNotes
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	s.recordAudit(ctx, actor, "booking.status", id, map[string]any{"status": string(req.BookingStatus)})
	return b, nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "booking",
		EntityID: id.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit", slog.Any("error", err), slog.String("action", action))
	}
}
