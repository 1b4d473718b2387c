package manipulation

import "github.com/shopspring/decimal"

// Rounder rounds numbers to a per-currency number of decimal places.
type Rounder struct {
	places map[string]int32
}

// NewRounder creates a rounder from a currency to decimal places map, e.g. {"USD": 2}.
func NewRounder(places map[string]int32) Rounder {
	return Rounder{places: places}
}

// Round rounds n half to even when places are configured for currency, and returns n
// unchanged otherwise.
func (r Rounder) Round(n decimal.Decimal, currency string) decimal.Decimal {
	places, ok := r.places[currency]
	if !ok {
		return n
	}
	return n.RoundBank(places)
}

// divisionPlaces is the number of decimal places kept by divisions before rounding.
const divisionPlaces = 28

func div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, divisionPlaces)
}
