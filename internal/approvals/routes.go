package approvals

import (
	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/rbac"
)

// MountRoutes attaches approval routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(rbac.PermApprovalView))
		r.Get("/approvals", h.List)
		r.Get("/approvals/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermApprovalRequest))
		r.Post("/approvals", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermApprovalDecide))
		r.Post("/approvals/{id}/approve", h.Approve)
		r.Post("/approvals/{id}/reject", h.Reject)
	})
}
