package quotations

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/shared"
)

// Status is the stored quotation lifecycle state. Expiry is never stored;
// it is derived at read time (see EffectiveStatus).
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	// StatusExpired is a derived status only, never persisted.
	StatusExpired Status = "expired"
)

var (
	// ErrInvalidStatus marks transitions refused by the state machine.
	ErrInvalidStatus = fmt.Errorf("invalid status transition: %w", shared.ErrConflict)
	// ErrApprovalPending blocks sending while an approval request is open.
	ErrApprovalPending = fmt.Errorf("approval request pending: %w", shared.ErrConflict)
	// ErrApprovalRequired refuses a send whose discount exceeds the
	// threshold without an approved request on file.
	ErrApprovalRequired = fmt.Errorf("manager approval required: %w", shared.ErrConflict)
	// ErrExpired blocks send/accept on quotations past their validity.
	ErrExpired = fmt.Errorf("quotation expired: %w", shared.ErrConflict)
	// ErrVersionConflict signals a concurrent modification lost the race.
	ErrVersionConflict = fmt.Errorf("quotation modified concurrently: %w", shared.ErrConflict)
)

// Quotation aggregates the priced options offered against one travel
// request. Owned by the creating salesperson while draft; customers gain
// read access once sent.
type Quotation struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	RequestID          uuid.UUID        `json:"request_id" db:"request_id"`
	CustomerID         string           `json:"customer_id" db:"customer_id"`
	SalespersonID      string           `json:"salesperson_id" db:"salesperson_id"`
	SalespersonName    string           `json:"salesperson_name" db:"salesperson_name"`
	Title              string           `json:"title" db:"title"`
	ValidityDays       int              `json:"validity_days" db:"validity_days"`
	Status             Status           `json:"status" db:"status"`
	TermsConditions    string           `json:"terms_conditions" db:"terms_conditions"`
	SelectedOptionCode string           `json:"selected_option_code,omitempty" db:"selected_option_code"`
	Options            []pricing.Option `json:"options" db:"-"`
	Version            int64            `json:"version" db:"version"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// ExpiresAt returns the validity cut-off.
func (q *Quotation) ExpiresAt() time.Time {
	return q.CreatedAt.AddDate(0, 0, q.ValidityDays)
}

// Expired reports whether the quotation is past its validity at now.
// Accepted quotations never expire.
func (q *Quotation) Expired(now time.Time) bool {
	if q.Status == StatusAccepted {
		return false
	}
	return now.After(q.ExpiresAt())
}

// EffectiveStatus derives the read-time status. The stored status field is
// never written to "expired"; viewers simply see it once the cut-off has
// passed.
func (q *Quotation) EffectiveStatus(now time.Time) Status {
	if q.Expired(now) {
		return StatusExpired
	}
	return q.Status
}

// Option returns the option with the given code.
func (q *Quotation) Option(code string) (*pricing.Option, error) {
	for i := range q.Options {
		if q.Options[i].Code == code {
			return &q.Options[i], nil
		}
	}
	return nil, fmt.Errorf("option %q: %w", code, shared.ErrNotFound)
}
