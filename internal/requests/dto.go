package requests

import "github.com/tripflow/tripflow/internal/shared"

// CreateTravelRequest is the intake payload.
type CreateTravelRequest struct {
	Title               string   `json:"title" validate:"required,max=200"`
	TravelType          string   `json:"travel_type" validate:"required,oneof=leisure business group pilgrimage education"`
	Adults              int      `json:"adults" validate:"required,min=1"`
	Children            int      `json:"children" validate:"min=0"`
	Infants             int      `json:"infants" validate:"min=0"`
	DepartureDate       string   `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate          string   `json:"return_date" validate:"required,datetime=2006-01-02"`
	IsFlexibleDates     bool     `json:"is_flexible_dates"`
	BudgetMin           *float64 `json:"budget_min" validate:"omitempty,gt=0"`
	BudgetMax           *float64 `json:"budget_max" validate:"omitempty,gt=0"`
	BudgetPerPerson     bool     `json:"budget_per_person"`
	Destinations        []string `json:"destinations" validate:"required,min=1,dive,required"`
	TransportModes      []string `json:"transport_modes" validate:"required,min=1,dive,oneof=flight train bus car cruise"`
	AccommodationStar   *int     `json:"accommodation_star" validate:"omitempty,min=1,max=5"`
	MealPreference      string   `json:"meal_preference" validate:"omitempty,max=100"`
	SpecialRequirements string   `json:"special_requirements" validate:"omitempty,max=2000"`
}

// AssignRequest hands a request to a salesperson.
type AssignRequest struct {
	SalespersonID string `json:"salesperson_id" validate:"required"`
}

// UpdateStatusRequest moves a request between funnel states.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending quoted confirmed cancelled"`
}

// ListFilter narrows request listings.
type ListFilter struct {
	Status              *Status
	CustomerID          *string
	AssignedSalesperson *string
	Page                int
	PerPage             int
}

// ListResponse wraps a page of travel requests.
type ListResponse struct {
	Requests   []TravelRequest   `json:"requests"`
	Pagination shared.Pagination `json:"pagination"`
}
