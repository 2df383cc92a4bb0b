package pricing

// Category classifies a quotation line item.
type Category string

const (
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryActivities    Category = "activities"
	CategoryMeals         Category = "meals"
	CategoryTaxes         Category = "taxes"
	CategoryMiscellaneous Category = "miscellaneous"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryAccommodation, CategoryActivities,
		CategoryMeals, CategoryTaxes, CategoryMiscellaneous:
		return true
	}
	return false
}

// LineItem is one priced row of a quotation option. Total is derived as
// quantity × unit price, except for the taxes row whose unit price and
// total are back-computed from the other rows' subtotal.
type LineItem struct {
	ID          int64    `json:"id" db:"id"`
	Category    Category `json:"category" db:"category"`
	Description string   `json:"description" db:"description"`
	Quantity    int      `json:"quantity" db:"quantity"`
	UnitPrice   float64  `json:"unit_price" db:"unit_price"`
	Total       float64  `json:"total" db:"total"`
	// IsFixed rows cannot be removed by the builder, only edited.
	IsFixed bool `json:"is_fixed" db:"is_fixed"`
}

// Option is one alternative priced package (Premium/Standard/Budget)
// within a quotation. Line order matters for display only.
type Option struct {
	Code             string     `json:"code" db:"code"`
	Name             string     `json:"name" db:"name"`
	Duration         string     `json:"duration" db:"duration"`
	MarginPercentage float64    `json:"margin_percentage" db:"margin_percentage"`
	TotalPrice       float64    `json:"total_price" db:"total_price"`
	LineItems        []LineItem `json:"line_items" db:"-"`
}

// Cost returns the sum of all line totals as last computed, the pre-margin
// cost basis. Tax is folded in, matching the discount baseline.
func (o *Option) Cost() float64 {
	var cost float64
	for i := range o.LineItems {
		cost += o.LineItems[i].Total
	}
	return cost
}

// TaxLine returns the index of the taxes row, -1 when absent.
func (o *Option) TaxLine() int {
	for i := range o.LineItems {
		if o.LineItems[i].Category == CategoryTaxes {
			return i
		}
	}
	return -1
}
