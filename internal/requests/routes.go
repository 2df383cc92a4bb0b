package requests

import (
	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/rbac"
)

// MountRoutes attaches travel request routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(rbac.PermRequestView))
		r.Get("/requests", h.List)
		r.Get("/requests/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermRequestCreate))
		r.Post("/requests", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermRequestAssign))
		r.Post("/requests/{id}/assign", h.Assign)
		r.Patch("/requests/{id}/status", h.UpdateStatus)
	})
}
