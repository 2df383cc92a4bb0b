package approvals

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/observability"
	"github.com/tripflow/tripflow/internal/platform/httpx"
	"github.com/tripflow/tripflow/internal/shared"
)

// Handler exposes approval workflow endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}

	filter := ListFilter{Page: 1, PerPage: 20}
	if raw := r.URL.Query().Get("decision"); raw != "" {
		decision := Decision(raw)
		filter.Decision = &decision
	}
	if raw := r.URL.Query().Get("quotation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quotation_id")
			return
		}
		filter.QuotationID = &id
	}

	list, total, err := h.service.List(r.Context(), filter, *actor)
	if err != nil {
		h.logger.Error("list approvals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListResponse{
		Approvals:  list,
		Pagination: shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req CreateApprovalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	a, err := h.service.Create(r.Context(), req, *actor)
	if err != nil {
		h.logger.Error("create approval request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ApprovalRequested()
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionApproved)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision Decision) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var req DecideApprovalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}

	var (
		a   *ApprovalRequest
		err error
	)
	if decision == DecisionApproved {
		a, err = h.service.Approve(r.Context(), id, req, *actor)
	} else {
		a, err = h.service.Reject(r.Context(), id, req, *actor)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ApprovalDecided(string(decision))
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (*shared.Identity, uuid.UUID, bool) {
	actor := shared.IdentityFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid approval request id")
		return nil, uuid.Nil, false
	}
	return actor, id, true
}
