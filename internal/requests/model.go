// Package requests handles travel request intake: the customer's trip
// brief that salespeople quote against.
package requests

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks where a travel request sits in the funnel.
type Status string

const (
	StatusPending   Status = "pending"
	StatusQuoted    Status = "quoted"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// TravelRequest is a customer's trip brief.
type TravelRequest struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	CustomerID          string    `json:"customer_id"`
	CustomerName        string    `json:"customer_name"`
	TravelType          string    `json:"travel_type"`
	TravelersCount      int       `json:"travelers_count"`
	Adults              int       `json:"adults"`
	Children            int       `json:"children"`
	Infants             int       `json:"infants"`
	DepartureDate       string    `json:"departure_date"`
	ReturnDate          string    `json:"return_date"`
	IsFlexibleDates     bool      `json:"is_flexible_dates"`
	BudgetMin           *float64  `json:"budget_min,omitempty"`
	BudgetMax           *float64  `json:"budget_max,omitempty"`
	BudgetPerPerson     bool      `json:"budget_per_person"`
	Destinations        []string  `json:"destinations"`
	TransportModes      []string  `json:"transport_modes"`
	AccommodationStar   *int      `json:"accommodation_star,omitempty"`
	MealPreference      string    `json:"meal_preference,omitempty"`
	SpecialRequirements string    `json:"special_requirements,omitempty"`
	Status              Status    `json:"status"`
	AssignedSalesperson string    `json:"assigned_salesperson,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
