package rates

import (
	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/rbac"
)

// MountRoutes attaches rate studio routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(rbac.PermRatesView))
		r.Get("/rates/recommendation", h.Recommend)
		r.Post("/rates/simulate", h.Simulate)
		r.Get("/rates/elasticity", h.Elasticity)
	})
}
