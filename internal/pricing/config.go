// Package pricing implements the quotation pricing and approval-threshold
// engine: line-item roll-up, tax back-computation, margin pricing, discount
// versus a standard-margin baseline, and the manager-approval gate.
//
// Everything here is pure computation over caller-owned values. Persistence,
// role checks and display formatting belong to the callers.
package pricing

// Config carries the tunable constants of the engine. Deployments vary
// these per tenant or product category, so they are injected at
// construction time rather than hard-coded.
type Config struct {
	// TaxRate applies to the pre-tax subtotal, e.g. 0.18 for 18% GST.
	// Zero selects the default rate. Tax-exempt pricing is expressed by
	// omitting the taxes line from the option, which skips the tax
	// computation entirely, not by a zero rate.
	TaxRate float64
	// StandardMargin is the baseline markup percentage used to compute
	// the discount-free reference price.
	StandardMargin float64
	// ApprovalThreshold is the discount percentage above which a manager
	// must approve before a quotation may be sent.
	ApprovalThreshold float64
	// MinimumMargin floors the margin back-solved from a price target.
	MinimumMargin float64
}

// DefaultConfig returns the documented deployment defaults.
func DefaultConfig() Config {
	return Config{
		TaxRate:           0.18,
		StandardMargin:    20,
		ApprovalThreshold: 15,
		MinimumMargin:     5,
	}
}

// Calculator evaluates pricing operations under one Config.
type Calculator struct {
	cfg Config
}

// NewCalculator constructs a Calculator. Every zero-valued field falls
// back to its DefaultConfig value so partially specified configs stay
// usable; an explicit zero therefore cannot be distinguished from unset.
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.TaxRate == 0 {
		cfg.TaxRate = def.TaxRate
	}
	if cfg.StandardMargin == 0 {
		cfg.StandardMargin = def.StandardMargin
	}
	if cfg.ApprovalThreshold == 0 {
		cfg.ApprovalThreshold = def.ApprovalThreshold
	}
	if cfg.MinimumMargin == 0 {
		cfg.MinimumMargin = def.MinimumMargin
	}
	return &Calculator{cfg: cfg}
}

// Config returns the active configuration.
func (c *Calculator) Config() Config {
	return c.cfg
}
