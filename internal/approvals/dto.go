package approvals

import (
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/shared"
)

// CreateApprovalRequest raises a discount approval for one quotation option.
type CreateApprovalRequest struct {
	QuotationID uuid.UUID `json:"quotation_id" validate:"required"`
	OptionCode  string    `json:"option_code" validate:"required"`
	Reason      string    `json:"reason" validate:"required,min=10,max=2000"`
}

// DecideApprovalRequest carries the manager decision comment. Rejections
// must say why; approvals may stay silent.
type DecideApprovalRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

// ListFilter narrows approval listings.
type ListFilter struct {
	QuotationID *uuid.UUID
	Decision    *Decision
	RequestedBy *string
	Page        int
	PerPage     int
}

// ListResponse wraps a page of approval requests.
type ListResponse struct {
	Approvals  []ApprovalRequest `json:"approvals"`
	Pagination shared.Pagination `json:"pagination"`
}
