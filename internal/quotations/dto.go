package quotations

import (
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/pricing"
	"github.com/tripflow/tripflow/internal/shared"
)

type CreateQuotationRequest struct {
	RequestID       uuid.UUID          `json:"request_id" validate:"required"`
	Title           string             `json:"title" validate:"required,max=200"`
	ValidityDays    int                `json:"validity_days" validate:"gte=1,lte=90"`
	TermsConditions string             `json:"terms_conditions" validate:"max=4000"`
	Options         []OptionRequest    `json:"options" validate:"required,min=1,max=5,dive"`
}

type OptionRequest struct {
	Code             string           `json:"code" validate:"required,max=4"`
	Name             string           `json:"name" validate:"required,max=120"`
	Duration         string           `json:"duration" validate:"max=60"`
	MarginPercentage float64          `json:"margin_percentage" validate:"gte=0,lte=100"`
	LineItems        []LineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type LineItemRequest struct {
	Category    pricing.Category `json:"category" validate:"required,oneof=transport accommodation activities meals taxes miscellaneous"`
	Description string           `json:"description" validate:"required,max=200"`
	Quantity    int              `json:"quantity" validate:"gte=0"`
	UnitPrice   float64          `json:"unit_price" validate:"gte=0"`
	IsFixed     bool             `json:"is_fixed"`
}

type UpdateQuotationRequest struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	ValidityDays    *int             `json:"validity_days,omitempty" validate:"omitempty,gte=1,lte=90"`
	TermsConditions *string          `json:"terms_conditions,omitempty" validate:"omitempty,max=4000"`
	Options         *[]OptionRequest `json:"options,omitempty" validate:"omitempty,min=1,max=5,dive"`
}

type ApplyPriceTargetRequest struct {
	OptionCode  string  `json:"option_code" validate:"required"`
	TargetPrice float64 `json:"target_price" validate:"gt=0"`
}

type SendQuotationRequest struct {
	OptionCode string `json:"option_code" validate:"required"`
}

type ListFilter struct {
	RequestID     *uuid.UUID
	CustomerID    *string
	SalespersonID *string
	Status        *Status
	Page          int
	PerPage       int
}

type ListResponse struct {
	Quotations []Quotation       `json:"quotations"`
	Pagination shared.Pagination `json:"pagination"`
}

func (r OptionRequest) toOption() pricing.Option {
	opt := pricing.Option{
		Code:             r.Code,
		Name:             r.Name,
		Duration:         r.Duration,
		MarginPercentage: r.MarginPercentage,
	}
	for i, li := range r.LineItems {
		opt.LineItems = append(opt.LineItems, pricing.LineItem{
			ID:          int64(i + 1),
			Category:    li.Category,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			IsFixed:     li.IsFixed,
		})
	}
	return opt
}
