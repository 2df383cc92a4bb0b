package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalculatorFillsZeroFields(t *testing.T) {
	calc := NewCalculator(Config{StandardMargin: 10})
	cfg := calc.Config()

	assert.Equal(t, 0.18, cfg.TaxRate)
	assert.Equal(t, 10.0, cfg.StandardMargin)
	assert.Equal(t, 15.0, cfg.ApprovalThreshold)
	assert.Equal(t, 5.0, cfg.MinimumMargin)
}

func TestTaxExemptionComesFromOmittingTheTaxLine(t *testing.T) {
	// The rate only applies when a taxes line exists, so tax-free pricing
	// drops the line rather than zeroing the rate.
	calc := NewCalculator(DefaultConfig())
	opt := flatOption(100000, 10)

	require.NoError(t, calc.Recalculate(opt))
	assert.Equal(t, 110000.0, opt.TotalPrice)
}
