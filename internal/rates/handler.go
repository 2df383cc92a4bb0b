package rates

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tripflow/tripflow/internal/platform/httpx"
)

// Handler exposes rate studio endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	q := RecommendationQuery{
		Destination:  r.URL.Query().Get("destination"),
		DurationDays: queryInt(r, "duration_days", 3),
		Travelers:    queryInt(r, "travelers", 2),
	}
	rec, err := h.service.Recommend(r.Context(), q)
	if err != nil {
		h.logger.Error("rate recommendation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var params SimulationParams
	if err := httpx.DecodeJSON(r, &params); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	result, err := h.service.Simulate(params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Elasticity(w http.ResponseWriter, r *http.Request) {
	basePrice, err := strconv.ParseFloat(r.URL.Query().Get("base_price"), 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid base_price")
		return
	}
	points, err := h.service.Elasticity(basePrice, queryInt(r, "points", 9))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"points": points})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
