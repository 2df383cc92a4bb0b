// Package rates serves pricing intelligence for the rate studio:
// recommendations from the market feed, scenario simulation and a price
// elasticity curve.
package rates

import "time"

// RecommendationQuery keys a recommendation lookup.
type RecommendationQuery struct {
	Destination  string `json:"destination" validate:"required,max=100"`
	DurationDays int    `json:"duration_days" validate:"required,min=1,max=60"`
	Travelers    int    `json:"travelers" validate:"required,min=1"`
}

// Recommendation is a suggested sell price with the factors behind it.
type Recommendation struct {
	Destination       string    `json:"destination"`
	RecommendedPrice  float64   `json:"recommended_price"`
	Confidence        float64   `json:"confidence"`
	SeasonalFactor    float64   `json:"seasonal_factor"`
	DemandFactor      float64   `json:"demand_factor"`
	CompetitorAverage float64   `json:"competitor_average"`
	CompetitorDelta   float64   `json:"competitor_delta"`
	Factors           []string  `json:"factors"`
	Reasoning         string    `json:"reasoning"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// SimulationParams drive a what-if scenario.
type SimulationParams struct {
	HotelStar      int    `json:"hotel_star" validate:"required,min=3,max=5"`
	TransportClass string `json:"transport_class" validate:"required,oneof=economy premium luxury"`
	DurationDays   int    `json:"duration_days" validate:"required,min=1,max=60"`
	Travelers      int    `json:"travelers" validate:"required,min=1"`
}

// SimulationResult is the outcome of a scenario.
type SimulationResult struct {
	EstimatedPrice        float64 `json:"estimated_price"`
	ConversionProbability float64 `json:"conversion_probability"`
	MarginEstimate        float64 `json:"margin_estimate"`
}

// ElasticityPoint is one sample on the price/conversion curve.
type ElasticityPoint struct {
	Price                 float64 `json:"price"`
	ConversionProbability float64 `json:"conversion_probability"`
}
