package requests

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// Repository defines persistence operations for travel requests.
type Repository interface {
	Create(ctx context.Context, tr TravelRequest) error
	Get(ctx context.Context, id uuid.UUID) (*TravelRequest, error)
	List(ctx context.Context, filter ListFilter) ([]TravelRequest, int, error)
	Update(ctx context.Context, tr TravelRequest) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service wraps travel request intake rules.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// Create files a new travel request for the acting customer.
func (s *Service) Create(ctx context.Context, req CreateTravelRequest, actor shared.Identity) (*TravelRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMax < *req.BudgetMin {
		return nil, fmt.Errorf("%w: budget_max below budget_min", shared.ErrValidation)
	}
	if req.ReturnDate < req.DepartureDate {
		return nil, fmt.Errorf("%w: return_date before departure_date", shared.ErrValidation)
	}

	tr := TravelRequest{
		ID:                  uuid.New(),
		Title:               req.Title,
		CustomerID:          actor.UserID,
		CustomerName:        actor.Name,
		TravelType:          req.TravelType,
		TravelersCount:      req.Adults + req.Children + req.Infants,
		Adults:              req.Adults,
		Children:            req.Children,
		Infants:             req.Infants,
		DepartureDate:       req.DepartureDate,
		ReturnDate:          req.ReturnDate,
		IsFlexibleDates:     req.IsFlexibleDates,
		BudgetMin:           req.BudgetMin,
		BudgetMax:           req.BudgetMax,
		BudgetPerPerson:     req.BudgetPerPerson,
		Destinations:        req.Destinations,
		TransportModes:      req.TransportModes,
		AccommodationStar:   req.AccommodationStar,
		MealPreference:      req.MealPreference,
		SpecialRequirements: req.SpecialRequirements,
		Status:              StatusPending,
		CreatedAt:           s.now().UTC(),
		UpdatedAt:           s.now().UTC(),
	}
	if err := s.repo.Create(ctx, tr); err != nil {
		return nil, fmt.Errorf("create travel request: %w", err)
	}
	s.recordAudit(ctx, actor, "request.create", tr.ID, nil)
	return &tr, nil
}

// Get returns a request visible to the actor. Customers only see their own.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor shared.Identity) (*TravelRequest, error) {
	tr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == "customer" && tr.CustomerID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	return tr, nil
}

// List returns requests scoped to the actor's role.
func (s *Service) List(ctx context.Context, filter ListFilter, actor shared.Identity) ([]TravelRequest, int, error) {
	if actor.Role == "customer" {
		filter.CustomerID = &actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// Assign hands the request to a salesperson.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, req AssignRequest, actor shared.Identity) (*TravelRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	tr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tr.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: cannot assign a cancelled request", shared.ErrConflict)
	}
	tr.AssignedSalesperson = req.SalespersonID
	tr.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *tr); err != nil {
		return nil, fmt.Errorf("assign request: %w", err)
	}
	s.recordAudit(ctx, actor, "request.assign", id, map[string]any{"salesperson_id": req.SalespersonID})
	return tr, nil
}

// UpdateStatus moves the request between funnel states.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, actor shared.Identity) (*TravelRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	tr, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.Status = req.Status
	tr.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, *tr); err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}
	s.recordAudit(ctx, actor, "request.status", id, map[string]any{"status": string(req.Status)})
	return tr, nil
}

// CustomerFor resolves the owning customer of a request. Used by the
// quotations service when denormalising ownership onto a quotation.
func (s *Service) CustomerFor(ctx context.Context, requestID uuid.UUID) (string, error) {
	tr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	return tr.CustomerID, nil
}

// MarkQuoted flags the request once a quotation exists for it. Requests
// already past pending keep their state.
func (s *Service) MarkQuoted(ctx context.Context, requestID uuid.UUID) error {
	tr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if tr.Status != StatusPending {
		return nil
	}
	tr.Status = StatusQuoted
	tr.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, *tr)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "travel_request",
		EntityID: id.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("record audit", slog.Any("error", err), slog.String("action", action))
	}
}
