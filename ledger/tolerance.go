package ledger

import (
	"github.com/shopspring/decimal"
)

// ToleranceConfig decides how far two amounts may differ and still be equal.
type ToleranceConfig struct {
	// defaults maps a currency, or "*" for any, to the tolerance used for integers.
	defaults   map[string]decimal.Decimal
	multiplier decimal.Decimal
}

// NewToleranceConfig returns the Beancount defaults: half of the last digit of the
// asserted number, and 0 for integer amounts.
func NewToleranceConfig() *ToleranceConfig {
	return &ToleranceConfig{
		defaults:   map[string]decimal.Decimal{"*": decimal.Zero},
		multiplier: decimal.NewFromFloat(0.5),
	}
}

// WithDefault sets the tolerance of integer amounts of currency ("*" for any).
func (c *ToleranceConfig) WithDefault(currency string, tolerance decimal.Decimal) *ToleranceConfig {
	c.defaults[currency] = tolerance
	return c
}

// Infer returns the tolerance of an asserted number: 10^exponent × multiplier for
// numbers with a fractional part, and the currency default otherwise.
func (c *ToleranceConfig) Infer(number decimal.Decimal, currency string) decimal.Decimal {
	if exp := number.Exponent(); exp < 0 {
		return decimal.New(1, exp).Mul(c.multiplier)
	}
	if tolerance, ok := c.defaults[currency]; ok {
		return tolerance
	}
	return c.defaults["*"]
}

// Equal reports whether actual matches the asserted number within its tolerance.
func (c *ToleranceConfig) Equal(asserted, actual decimal.Decimal, currency string) bool {
	return asserted.Sub(actual).Abs().LessThanOrEqual(c.Infer(asserted, currency))
}
