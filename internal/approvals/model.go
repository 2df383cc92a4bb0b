// Package approvals implements the discount approval workflow. A sale that
// discounts an option below the configured threshold needs a manager
// decision before the quotation can go out.
package approvals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// Decision is the lifecycle state of an approval request.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

var (
	// ErrDuplicatePending signals an open request already exists for the
	// quotation. At most one request may be in flight at a time.
	ErrDuplicatePending = fmt.Errorf("%w: approval request already pending", shared.ErrConflict)
	// ErrAlreadyDecided signals the request left the pending state.
	ErrAlreadyDecided = fmt.Errorf("%w: approval request already decided", shared.ErrConflict)
	// ErrNotRequired signals the option discount sits within the threshold.
	ErrNotRequired = fmt.Errorf("%w: discount does not require approval", shared.ErrValidation)
)

// ApprovalRequest captures a discount that exceeded the threshold together
// with the manager decision on it.
type ApprovalRequest struct {
	ID                 uuid.UUID  `json:"id"`
	QuotationID        uuid.UUID  `json:"quotation_id"`
	OptionCode         string     `json:"option_code"`
	DiscountPercentage float64    `json:"discount_percentage"`
	Reason             string     `json:"reason"`
	RequestedBy        string     `json:"requested_by"`
	RequestedByName    string     `json:"requested_by_name"`
	Decision           Decision   `json:"decision"`
	DecisionComment    string     `json:"decision_comment,omitempty"`
	DecidedBy          string     `json:"decided_by,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Pending reports whether the request still awaits a decision.
func (a *ApprovalRequest) Pending() bool {
	return a.Decision == DecisionPending
}
