package pricing

import "math"

// Recalculate makes the option internally consistent: every non-tax line
// total becomes quantity × unit price, the tax line is back-computed from
// the resulting subtotal, and the sell price is the taxed subtotal marked
// up by the option margin, rounded half-up to a whole currency unit.
//
// Validation happens before any mutation, so a failed call leaves the
// option unchanged. The call is idempotent.
func (c *Calculator) Recalculate(opt *Option) error {
	if opt == nil {
		return validationErrorf("option", "option required")
	}
	if err := c.validate(opt); err != nil {
		return err
	}

	var subtotal float64
	taxIdx := -1
	for i := range opt.LineItems {
		item := &opt.LineItems[i]
		if item.Category == CategoryTaxes {
			taxIdx = i
			continue
		}
		item.Total = float64(item.Quantity) * item.UnitPrice
		subtotal += item.Total
	}

	var taxTotal float64
	if taxIdx >= 0 {
		taxTotal = subtotal * c.cfg.TaxRate
		tax := &opt.LineItems[taxIdx]
		tax.Quantity = 1
		tax.UnitPrice = taxTotal
		tax.Total = taxTotal
	}

	opt.TotalPrice = roundHalfUp((subtotal + taxTotal) * (1 + opt.MarginPercentage/100))
	return nil
}

// DiscountPercentage returns the shortfall of the sell price below the
// standard-margin reference price, as a percentage floored at zero. A sell
// price above the reference yields zero, never a negative "premium".
func (c *Calculator) DiscountPercentage(opt *Option) float64 {
	if opt == nil {
		return 0
	}
	cost := opt.Cost()
	if cost <= 0 {
		return 0
	}
	standardPrice := cost * (1 + c.cfg.StandardMargin/100)
	return math.Max(0, (standardPrice-opt.TotalPrice)/standardPrice*100)
}

// RequiresApproval reports whether the option's discount exceeds the
// configured approval threshold.
func (c *Calculator) RequiresApproval(opt *Option) bool {
	return c.DiscountPercentage(opt) > c.cfg.ApprovalThreshold
}

// ApplyPriceTarget back-solves the margin needed to land on target, clamps
// it at the minimum margin, rounds to the nearest whole point, and
// recalculates. A target implying a margin above 100 is rejected before
// the option is touched. Used when an external rate recommendation
// proposes a sell price instead of a margin.
func (c *Calculator) ApplyPriceTarget(opt *Option, target float64) error {
	if opt == nil {
		return validationErrorf("option", "option required")
	}
	if err := c.validate(opt); err != nil {
		return err
	}
	cost := opt.Cost()
	if cost == 0 {
		return validationErrorf("target_price", "cannot back-solve margin against zero cost")
	}
	required := (target - cost) / cost * 100
	margin := roundHalfUp(math.Max(c.cfg.MinimumMargin, required))
	if margin > 100 {
		return validationErrorf("target_price", "implies margin %g above 100", margin)
	}
	opt.MarginPercentage = margin
	return c.Recalculate(opt)
}

func (c *Calculator) validate(opt *Option) error {
	if opt.MarginPercentage < 0 || opt.MarginPercentage > 100 {
		return validationErrorf("margin_percentage", "must be between 0 and 100, got %g", opt.MarginPercentage)
	}
	taxLines := 0
	for i := range opt.LineItems {
		item := &opt.LineItems[i]
		if item.Quantity < 0 {
			return validationErrorf("quantity", "line %q: must not be negative", item.Description)
		}
		if item.UnitPrice < 0 {
			return validationErrorf("unit_price", "line %q: must not be negative", item.Description)
		}
		if !item.Category.Valid() {
			return validationErrorf("category", "line %q: unknown category %q", item.Description, item.Category)
		}
		if item.Category == CategoryTaxes {
			taxLines++
		}
	}
	if taxLines > 1 {
		return validationErrorf("line_items", "at most one taxes line allowed, found %d", taxLines)
	}
	return nil
}

// roundHalfUp rounds to the nearest whole unit with .5 going up.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
