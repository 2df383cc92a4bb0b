// Package bookings turns accepted quotations into operational bookings and
// tracks money collected against them.
package bookings

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// PaymentStatus tracks collection against the booking total.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// BookingStatus tracks the operational state of the trip.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

var (
	// ErrOverpayment signals a capture that exceeds the outstanding amount.
	ErrOverpayment = fmt.Errorf("%w: capture exceeds outstanding amount", shared.ErrValidation)
	// ErrRefundUnavailable signals a refund against a booking that is not
	// fully paid.
	ErrRefundUnavailable = fmt.Errorf("%w: only paid bookings can be refunded", shared.ErrConflict)
	// ErrAlreadyBooked signals the quotation already has a booking.
	ErrAlreadyBooked = fmt.Errorf("%w: quotation already booked", shared.ErrConflict)
)

// PaymentKind distinguishes ledger entries on a booking.
type PaymentKind string

const (
	PaymentCapture PaymentKind = "capture"
	PaymentRefund  PaymentKind = "refund"
)

// Payment is one money movement against a booking.
type Payment struct {
	ID         int64       `json:"id"`
	Kind       PaymentKind `json:"kind"`
	Amount     float64     `json:"amount"`
	Reference  string      `json:"reference,omitempty"`
	RecordedBy string      `json:"recorded_by"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Booking is a confirmed trip derived from an accepted quotation.
type Booking struct {
	ID             uuid.UUID     `json:"id"`
	QuotationID    uuid.UUID     `json:"quotation_id"`
	CustomerID     string        `json:"customer_id"`
	CustomerName   string        `json:"customer_name"`
	TotalAmount    float64       `json:"total_amount"`
	AmountPaid     float64       `json:"amount_paid"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	BookingStatus  BookingStatus `json:"booking_status"`
	TravelDate     string        `json:"travel_date"`
	OperationNotes string        `json:"operation_notes,omitempty"`
	Payments       []Payment     `json:"payments,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Outstanding is the amount still to collect.
func (b *Booking) Outstanding() float64 {
	return b.TotalAmount - b.AmountPaid
}
