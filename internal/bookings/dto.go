package bookings

import (
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// CreateBookingRequest converts an accepted quotation into a booking.
type CreateBookingRequest struct {
	QuotationID uuid.UUID `json:"quotation_id" validate:"required"`
	TravelDate  string    `json:"travel_date" validate:"required,datetime=2006-01-02"`
}

// CapturePaymentRequest records money received against a booking.
type CapturePaymentRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"omitempty,max=200"`
}

// RefundRequest returns money on a fully paid booking.
type RefundRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"omitempty,max=200"`
}

// UpdateStatusRequest moves a booking between operational states.
type UpdateStatusRequest struct {
	BookingStatus  BookingStatus `json:"booking_status" validate:"required,oneof=confirmed cancelled completed"`
	OperationNotes string        `json:"operation_notes" validate:"omitempty,max=2000"`
}

// ListFilter narrows booking listings.
type ListFilter struct {
	PaymentStatus *PaymentStatus
	BookingStatus *BookingStatus
	CustomerID    *string
	Page          int
	PerPage       int
}

// ListResponse wraps a page of bookings.
type ListResponse struct {
	Bookings   []Booking         `json:"bookings"`
	Pagination shared.Pagination `json:"pagination"`
}
