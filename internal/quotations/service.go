package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/shared"
)

// Repository defines persistence operations for quotations.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, q Quotation) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context, filter ListFilter) ([]Quotation, int, error)
	// Update rewrites header and options when the stored version matches
	// q.Version, bumping it by one. Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, q Quotation) error
	// UpdateStatus transitions the status under the same version check.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status Status, selectedOption string) error
}

// ApprovalGate answers whether approval requests block or unblock a send.
// Implemented by the approvals service.
type ApprovalGate interface {
	PendingExists(ctx context.Context, quotationID uuid.UUID) (bool, error)
	ApprovedExists(ctx context.Context, quotationID uuid.UUID, optionCode string) (bool, error)
}

// RequestDirectory resolves travel-request ownership and records that a
// request has been quoted. Implemented by the requests service.
type RequestDirectory interface {
	CustomerFor(ctx context.Context, requestID uuid.UUID) (string, error)
	MarkQuoted(ctx context.Context, requestID uuid.UUID) error
}

// Notifier enqueues customer-facing notifications. Nil disables them.
type Notifier interface {
	QuotationSent(ctx context.Context, q *Quotation) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service wraps quotation business rules: draft editing, pricing
// delegation and the gated draft→sent transition.
type Service struct {
	repo      Repository
	requests  RequestDirectory
	approvals ApprovalGate
	calc      *pricing.Calculator
	audit     *shared.AuditLogger
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, requests RequestDirectory, approvals ApprovalGate, calc *pricing.Calculator, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		requests:  requests,
		approvals: approvals,
		calc:      calc,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Calculator exposes the pricing calculator for read-only consumers.
func (s *Service) Calculator() *pricing.Calculator {
	return s.calc
}

// Create builds a draft quotation against a travel request and prices
// every option before persisting.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, actor shared.Identity) (*Quotation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	customerID, err := s.requests.CustomerFor(ctx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}

	validityDays := req.ValidityDays
	if validityDays == 0 {
		validityDays = 7
	}

	q := Quotation{
		ID:              uuid.New(),
		RequestID:       req.RequestID,
		CustomerID:      customerID,
		SalespersonID:   actor.UserID,
		SalespersonName: actor.Name,
		Title:           req.Title,
		ValidityDays:    validityDays,
		Status:          StatusDraft,
		TermsConditions: req.TermsConditions,
		Version:         1,
		CreatedAt:       s.now().UTC(),
		UpdatedAt:       s.now().UTC(),
	}
	for _, optReq := range req.Options {
		opt := optReq.toOption()
		if err := s.calc.Recalculate(&opt); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, opt)
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}

	if err := s.requests.MarkQuoted(ctx, req.RequestID); err != nil {
		s.logger.Warn("mark request quoted", slog.Any("error", err), slog.String("request_id", req.RequestID.String()))
	}
	s.recordAudit(ctx, actor, "quotation.create", q.ID, nil)

	return s.repo.Get(ctx, q.ID)
}

// Get returns a quotation visible to the actor. Customers only see their
// own quotations and never drafts.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor shared.Identity) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == "customer" {
		if q.CustomerID != actor.UserID || q.Status == StatusDraft {
			return nil, shared.ErrNotFound
		}
	}
	return q, nil
}

// List returns quotations scoped to the actor's role.
func (s *Service) List(ctx context.Context, filter ListFilter, actor shared.Identity) ([]Quotation, int, error) {
	if actor.Role == "customer" {
		filter.CustomerID = &actor.UserID
		sent := StatusSent
		if filter.Status == nil {
			filter.Status = &sent
		}
	}
	return s.repo.List(ctx, filter)
}

// UpdateDraft edits a draft quotation. Every touched option is repriced so
// stored totals can never go stale.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest, actor shared.Identity) (*Quotation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(q, actor); err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.ValidityDays != nil {
		q.ValidityDays = *req.ValidityDays
	}
	if req.TermsConditions != nil {
		q.TermsConditions = *req.TermsConditions
	}
	if req.Options != nil {
		q.Options = nil
		for _, optReq := range *req.Options {
			opt := optReq.toOption()
			if err := s.calc.Recalculate(&opt); err != nil {
				return nil, err
			}
			q.Options = append(q.Options, opt)
		}
	}
	q.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, *q); err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// RecalculateOption reprices one option in place.
func (s *Service) RecalculateOption(ctx context.Context, id uuid.UUID, optionCode string, actor shared.Identity) (*Quotation, error) {
	return s.mutateOption(ctx, id, optionCode, actor, func(opt *pricing.Option) error {
		return s.calc.Recalculate(opt)
	})
}

// ApplyPriceTarget back-solves the margin for an externally recommended
// sell price and reprices the option.
func (s *Service) ApplyPriceTarget(ctx context.Context, id uuid.UUID, req ApplyPriceTargetRequest, actor shared.Identity) (*Quotation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return s.mutateOption(ctx, id, req.OptionCode, actor, func(opt *pricing.Option) error {
		return s.calc.ApplyPriceTarget(opt, req.TargetPrice)
	})
}

func (s *Service) mutateOption(ctx context.Context, id uuid.UUID, optionCode string, actor shared.Identity, fn func(*pricing.Option) error) (*Quotation, error) {
	var updated *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.ensureEditable(q, actor); err != nil {
			return err
		}
		opt, err := q.Option(optionCode)
		if err != nil {
			return err
		}
		if err := fn(opt); err != nil {
			return err
		}
		q.UpdatedAt = s.now().UTC()
		if err := repo.Update(ctx, *q); err != nil {
			return fmt.Errorf("persist option: %w", err)
		}
		updated = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Send performs the gated draft→sent transition for the selected option.
// The discount gate and the status write run under one transaction with an
// optimistic version check, so concurrent sends cannot both slip through.
func (s *Service) Send(ctx context.Context, id uuid.UUID, req SendQuotationRequest, actor shared.Identity) (*Quotation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	var sent *Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if q.Status != StatusDraft {
			return fmt.Errorf("%w: can only send draft quotations", ErrInvalidStatus)
		}
		if q.Expired(s.now()) {
			return ErrExpired
		}
		opt, err := q.Option(req.OptionCode)
		if err != nil {
			return err
		}

		pending, err := s.approvals.PendingExists(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("check pending approvals: %w", err)
		}
		if pending {
			return ErrApprovalPending
		}

		if s.calc.RequiresApproval(opt) {
			approved, err := s.approvals.ApprovedExists(ctx, q.ID, opt.Code)
			if err != nil {
				return fmt.Errorf("check approved requests: %w", err)
			}
			if !approved {
				return fmt.Errorf("%w: discount %.2f%% exceeds threshold", ErrApprovalRequired, s.calc.DiscountPercentage(opt))
			}
		}

		if err := repo.UpdateStatus(ctx, q.ID, q.Version, StatusSent, opt.Code); err != nil {
			return err
		}
		q.Status = StatusSent
		q.SelectedOptionCode = opt.Code
		q.Version++
		sent = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "quotation.send", id, map[string]any{"option": req.OptionCode})
	if s.notifier != nil {
		if err := s.notifier.QuotationSent(ctx, sent); err != nil {
			s.logger.Warn("enqueue sent notification", slog.Any("error", err))
		}
	}
	return sent, nil
}

// Accept marks a sent quotation accepted by the customer.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor shared.Identity) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == "customer" && q.CustomerID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	if q.Status != StatusSent {
		return nil, fmt.Errorf("%w: can only accept sent quotations", ErrInvalidStatus)
	}
	if q.Expired(s.now()) {
		return nil, ErrExpired
	}
	if err := s.repo.UpdateStatus(ctx, q.ID, q.Version, StatusAccepted, q.SelectedOptionCode); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "quotation.accept", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) ensureEditable(q *Quotation, actor shared.Identity) error {
	if q.Status != StatusDraft {
		return fmt.Errorf("%w: only draft quotations can be modified", ErrInvalidStatus)
	}
	if actor.Role == "salesperson" && q.SalespersonID != actor.UserID {
		return shared.ErrForbidden
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "quotation",
		EntityID: id.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit", slog.Any("error", err), slog.String("action", action))
	}
}

// DiscountFor reports the current discount of one option, used by the
// approvals service when capturing a request.
func (s *Service) DiscountFor(ctx context.Context, id uuid.UUID, optionCode string) (float64, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	opt, err := q.Option(optionCode)
	if err != nil {
		return 0, err
	}
	return s.calc.DiscountPercentage(opt), nil
}

// AcceptedTotal resolves the customer and sell price of an accepted
// quotation's selected option. Used by the bookings service when
// converting an acceptance into a booking.
func (s *Service) AcceptedTotal(ctx context.Context, id uuid.UUID) (string, float64, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if q.Status != StatusAccepted {
		return "", 0, fmt.Errorf("%w: quotation is not accepted", ErrInvalidStatus)
	}
	opt, err := q.Option(q.SelectedOptionCode)
	if err != nil {
		return "", 0, err
	}
	return q.CustomerID, opt.TotalPrice, nil
}
