package quotations

import (
	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/rbac"
)

// MountRoutes attaches quotation routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(rbac.PermQuotationView))
		r.Get("/quotations", h.List)
		r.Get("/quotations/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermQuotationEdit))
		r.Post("/quotations", h.Create)
		r.Patch("/quotations/{id}", h.Update)
		r.Post("/quotations/{id}/options/{code}/recalculate", h.RecalculateOption)
		r.Post("/quotations/{id}/apply-target", h.ApplyPriceTarget)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermQuotationSend))
		r.Post("/quotations/{id}/send", h.Send)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermQuotationAccept))
		r.Post("/quotations/{id}/accept", h.Accept)
	})
}
