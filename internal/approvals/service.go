package approvals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// Repository defines persistence operations for approval requests.
type Repository interface {
	Create(ctx context.Context, a ApprovalRequest) error
	Get(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)
	List(ctx context.Context, filter ListFilter) ([]ApprovalRequest, int, error)
	// Decide writes the decision only while the request is still pending.
	// Returns ErrAlreadyDecided when it is not.
	Decide(ctx context.Context, id uuid.UUID, decision Decision, comment, decidedBy string, decidedAt time.Time) error
	PendingExists(ctx context.Context, quotationID uuid.UUID) (bool, error)
	ApprovedExists(ctx context.Context, quotationID uuid.UUID, optionCode string) (bool, error)
}

// DiscountSource reports the live discount of a quotation option.
// Implemented by the quotations service.
type DiscountSource interface {
	DiscountFor(ctx context.Context, quotationID uuid.UUID, optionCode string) (float64, error)
}

// Notifier tells the requester about a decision. Nil disables notifications.
type Notifier interface {
	ApprovalDecided(ctx context.Context, a *ApprovalRequest) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service enforces the approval workflow rules.
type Service struct {
	repo      Repository
	discounts DiscountSource
	threshold float64
	audit     *shared.AuditLogger
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service. threshold is the discount percentage
// above which a send needs approval.
func NewService(repo Repository, discounts DiscountSource, threshold float64, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		discounts: discounts,
		threshold: threshold,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Create raises an approval request. The discount is captured at request
// time from the live option so the approver sees what was actually asked.
func (s *Service) Create(ctx context.Context, req CreateApprovalRequest, actor shared.Identity) (*ApprovalRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	discount, err := s.discounts.DiscountFor(ctx, req.QuotationID, req.OptionCode)
	if err != nil {
		return nil, fmt.Errorf("resolve discount: %w", err)
	}
	if discount <= s.threshold {
		return nil, fmt.Errorf("%w (%.2f%% within %.0f%%)", ErrNotRequired, discount, s.threshold)
	}

	pending, err := s.repo.PendingExists(ctx, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("check pending: %w", err)
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	a := ApprovalRequest{
		ID:                 uuid.New(),
		QuotationID:        req.QuotationID,
		OptionCode:         req.OptionCode,
		DiscountPercentage: discount,
		Reason:             req.Reason,
		RequestedBy:        actor.UserID,
		RequestedByName:    actor.Name,
		Decision:           DecisionPending,
		CreatedAt:          s.now().UTC(),
		UpdatedAt:          s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create approval request: %w", err)
	}

	s.recordAudit(ctx, actor, "approval.request", a.ID, map[string]any{
		"quotation_id": a.QuotationID.String(),
		"discount":     discount,
	})
	return &a, nil
}

// Get returns one approval request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error) {
	return s.repo.Get(ctx, id)
}

// List returns approval requests scoped to the actor. Salespeople only see
// requests they raised.
func (s *Service) List(ctx context.Context, filter ListFilter, actor shared.Identity) ([]ApprovalRequest, int, error) {
	if actor.Role == "salesperson" {
		filter.RequestedBy = &actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// Approve grants a pending request. The requester cannot approve their own.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, req DecideApprovalRequest, actor shared.Identity) (*ApprovalRequest, error) {
	return s.decide(ctx, id, DecisionApproved, req.Comment, actor)
}

// Reject declines a pending request with a mandatory comment.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, req DecideApprovalRequest, actor shared.Identity) (*ApprovalRequest, error) {
	if req.Comment == "" {
		return nil, fmt.Errorf("%w: rejection requires a comment", shared.ErrValidation)
	}
	return s.decide(ctx, id, DecisionRejected, req.Comment, actor)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, decision Decision, comment string, actor shared.Identity) (*ApprovalRequest, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Pending() {
		return nil, ErrAlreadyDecided
	}
	if a.RequestedBy == actor.UserID {
		return nil, fmt.Errorf("%w: cannot decide own approval request", shared.ErrForbidden)
	}

	if err := s.repo.Decide(ctx, id, decision, comment, actor.UserID, s.now().UTC()); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "approval."+string(decision), id, map[string]any{
		"quotation_id": a.QuotationID.String(),
	})

	decided, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.ApprovalDecided(ctx, decided); err != nil {
			s.logger.Warn("enqueue decision notification", slog.Any("error", err), slog.String("approval_id", id.String()))
		}
	}
	return decided, nil
}

// PendingExists reports whether any approval request for the quotation
// still awaits a decision.
func (s *Service) PendingExists(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	return s.repo.PendingExists(ctx, quotationID)
}

// ApprovedExists reports whether an approved request covers the option.
func (s *Service) ApprovedExists(ctx context.Context, quotationID uuid.UUID, optionCode string) (bool, error) {
	return s.repo.ApprovedExists(ctx, quotationID, optionCode)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "approval_request",
		EntityID: id.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit", slog.Any("error", err), slog.String("action", action))
	}
}
