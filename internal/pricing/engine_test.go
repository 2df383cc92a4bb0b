package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripflow/tripflow/internal/shared"
)

func testOption() *Option {
	return &Option{
		Code:             "A",
		Name:             "Option A - Premium",
		Duration:         "5 Days 4 Nights",
		MarginPercentage: 15,
		LineItems: []LineItem{
			{ID: 1, Category: CategoryTransport, Description: "Flight (Round Trip)", Quantity: 4, UnitPrice: 8000, IsFixed: true},
			{ID: 2, Category: CategoryAccommodation, Description: "4-Star Hotel (Per Night)", Quantity: 4, UnitPrice: 6000},
			{ID: 3, Category: CategoryActivities, Description: "Sightseeing Package", Quantity: 1, UnitPrice: 15000},
			{ID: 4, Category: CategoryMeals, Description: "All Meals Included", Quantity: 4, UnitPrice: 2000},
			{ID: 5, Category: CategoryTaxes, Description: "GST & Service Charges", Quantity: 1, UnitPrice: 0, IsFixed: true},
		},
	}
}

// flatOption returns an option without a tax line whose cost is exactly the
// sum of its line totals after one recalculation.
func flatOption(amount float64, margin float64) *Option {
	return &Option{
		Code:             "B",
		MarginPercentage: margin,
		LineItems: []LineItem{
			{ID: 1, Category: CategoryMiscellaneous, Description: "Package", Quantity: 1, UnitPrice: amount},
		},
	}
}

func TestRecalculateRollsUpTax(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := testOption()

	require.NoError(t, calc.Recalculate(opt))

	// 4×8000 + 4×6000 + 15000 + 4×2000 = 79000
	subtotal := 79000.0
	taxIdx := opt.TaxLine()
	require.GreaterOrEqual(t, taxIdx, 0)
	assert.InDelta(t, subtotal*0.18, opt.LineItems[taxIdx].Total, 1e-9)
	assert.InDelta(t, opt.LineItems[taxIdx].Total, opt.LineItems[taxIdx].UnitPrice, 1e-9)
	assert.Equal(t, 1, opt.LineItems[taxIdx].Quantity)

	want := roundHalfUp(subtotal * 1.18 * 1.15)
	assert.Equal(t, want, opt.TotalPrice)
}

func TestRecalculateIdempotent(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := testOption()

	require.NoError(t, calc.Recalculate(opt))
	first := *opt
	firstLines := append([]LineItem(nil), opt.LineItems...)

	require.NoError(t, calc.Recalculate(opt))
	assert.Equal(t, first.TotalPrice, opt.TotalPrice)
	assert.Equal(t, firstLines, opt.LineItems)
}

func TestRecalculateWithoutTaxLine(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(100000, 0)

	require.NoError(t, calc.Recalculate(opt))
	assert.Equal(t, 100000.0, opt.TotalPrice)
	assert.Equal(t, 100000.0, opt.Cost())
}

func TestRecalculateValidation(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	cases := []struct {
		name   string
		mutate func(*Option)
	}{
		{"negative quantity", func(o *Option) { o.LineItems[1].Quantity = -1 }},
		{"negative unit price", func(o *Option) { o.LineItems[2].UnitPrice = -50 }},
		{"margin below range", func(o *Option) { o.MarginPercentage = -1 }},
		{"margin above range", func(o *Option) { o.MarginPercentage = 101 }},
		{"duplicate tax line", func(o *Option) {
			o.LineItems = append(o.LineItems, LineItem{ID: 6, Category: CategoryTaxes, Description: "Extra Tax", Quantity: 1})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt := testOption()
			require.NoError(t, calc.Recalculate(opt))
			before := *opt
			beforeLines := append([]LineItem(nil), opt.LineItems...)

			tc.mutate(opt)
			err := calc.Recalculate(opt)
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.True(t, errors.Is(err, shared.ErrValidation))

			// All-or-nothing: derived fields untouched on failure.
			assert.Equal(t, before.TotalPrice, opt.TotalPrice)
			assert.Equal(t, beforeLines[4].Total, opt.LineItems[4].Total)
		})
	}
}

func TestRecalculateRoundsHalfUp(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(100.5, 0)

	require.NoError(t, calc.Recalculate(opt))
	assert.Equal(t, 101.0, opt.TotalPrice)
}

func TestMarginMonotonicity(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	prev := -1.0
	for margin := 0.0; margin <= 100; margin += 5 {
		opt := testOption()
		opt.MarginPercentage = margin
		require.NoError(t, calc.Recalculate(opt))
		assert.GreaterOrEqual(t, opt.TotalPrice, prev, "margin %g", margin)
		assert.GreaterOrEqual(t, opt.TotalPrice, 0.0)
		prev = opt.TotalPrice
	}
}

func TestDiscountPercentage(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// Zero margin on a 20% standard baseline: (120000-100000)/120000 = 16.67%.
	opt := flatOption(100000, 0)
	require.NoError(t, calc.Recalculate(opt))
	assert.InDelta(t, 16.67, calc.DiscountPercentage(opt), 0.01)
	assert.True(t, calc.RequiresApproval(opt))

	// Sell price above the standard price floors at zero, not negative.
	rich := flatOption(100000, 30)
	require.NoError(t, calc.Recalculate(rich))
	assert.Equal(t, 0.0, calc.DiscountPercentage(rich))
	assert.False(t, calc.RequiresApproval(rich))
}

func TestDiscountAtThresholdDoesNotRequireApproval(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// Margin 2% → sell 102000 → discount (120000-102000)/120000 = 15% exactly.
	opt := flatOption(100000, 2)
	require.NoError(t, calc.Recalculate(opt))
	assert.InDelta(t, 15.0, calc.DiscountPercentage(opt), 1e-9)
	assert.False(t, calc.RequiresApproval(opt))
}

func TestApplyPriceTargetBackSolves(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(80000, 0)
	require.NoError(t, calc.Recalculate(opt))

	require.NoError(t, calc.ApplyPriceTarget(opt, 92000))
	assert.Equal(t, 15.0, opt.MarginPercentage)
	assert.Equal(t, 92000.0, opt.TotalPrice)

	// A repeated recalculation reproduces the target within rounding.
	require.NoError(t, calc.Recalculate(opt))
	assert.Equal(t, 92000.0, opt.TotalPrice)
}

func TestApplyPriceTargetClampsMinimumMargin(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(80000, 0)
	require.NoError(t, calc.Recalculate(opt))

	// Target below cost implies a loss-leading margin; clamp at 5%.
	require.NoError(t, calc.ApplyPriceTarget(opt, 70000))
	assert.Equal(t, 5.0, opt.MarginPercentage)
}

func TestApplyPriceTargetRejectsMarginAboveRange(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(80000, 0)
	require.NoError(t, calc.Recalculate(opt))

	// 80000 → 200000 back-solves to a 150% margin, outside [0,100].
	err := calc.ApplyPriceTarget(opt, 200000)
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	// All-or-nothing: the failed call leaves the option untouched.
	assert.Equal(t, 0.0, opt.MarginPercentage)
	assert.Equal(t, 80000.0, opt.TotalPrice)
}

func TestApplyPriceTargetZeroCost(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(0, 0)
	require.NoError(t, calc.Recalculate(opt))

	err := calc.ApplyPriceTarget(opt, 50000)
	require.Error(t, err)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 0.0, calc.DiscountPercentage(opt))
}

func TestConfigurableConstants(t *testing.T) {
	calc := NewCalculator(Config{TaxRate: 0.05, StandardMargin: 10, ApprovalThreshold: 2, MinimumMargin: 1})
	opt := testOption()

	require.NoError(t, calc.Recalculate(opt))
	taxIdx := opt.TaxLine()
	assert.InDelta(t, 79000*0.05, opt.LineItems[taxIdx].Total, 1e-9)
}
