package bookings

import (
	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/rbac"
)

// MountRoutes attaches booking routes under the given router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(rbac.PermBookingView))
		r.Get("/bookings", h.List)
		r.Get("/bookings/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermBookingManage))
		r.Post("/bookings", h.Create)
		r.Patch("/bookings/{id}/status", h.UpdateStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAll(rbac.PermBookingPayment))
		r.Post("/bookings/{id}/payments", h.CapturePayment)
		r.Post("/bookings/{id}/refund", h.Refund)
	})
}
