package manipulation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// DistributionKind selects how an amount is weighted across its targets.
type DistributionKind int

const (
	// DistributeUnit weights each target by its units.
	DistributeUnit DistributionKind = iota
	// DistributeEqual gives every target the same share.
	DistributeEqual
	// DistributeMeta weights each target by an amount in its metadata.
	DistributeMeta
)

// Distribution is a parsed distribution mode: "unit", "equal" or "meta:<field>".
type Distribution struct {
	Kind  DistributionKind
	Field string // Metadata key for DistributeMeta
}

// ParseDistribution parses a distribution mode.
func ParseDistribution(text string) (Distribution, error) {
	switch text = strings.TrimSpace(text); {
	case text == "unit":
		return Distribution{Kind: DistributeUnit}, nil
	case text == "equal":
		return Distribution{Kind: DistributeEqual}, nil
	case strings.HasPrefix(text, "meta:") && len(text) > len("meta:"):
		return Distribution{Kind: DistributeMeta, Field: strings.TrimPrefix(text, "meta:")}, nil
	}
	return Distribution{}, fmt.Errorf("unknown distribution %q, expected unit, equal or meta:<field>", text)
}

func (d Distribution) String() string {
	switch d.Kind {
	case DistributeEqual:
		return "equal"
	case DistributeMeta:
		return "meta:" + d.Field
	default:
		return "unit"
	}
}

// Distribute splits amount across candidates and returns one share per candidate, rounded
// for currency. Shares are rounded individually, so their sum may differ slightly from
// amount.
func Distribute(d Distribution, amount decimal.Decimal, candidates []*ast.Posting, rounder Rounder, currency string) ([]decimal.Decimal, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	weights := make([]decimal.Decimal, len(candidates))
	switch d.Kind {
	case DistributeEqual:
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
	case DistributeUnit:
		for i, p := range candidates {
			if p.Amount != nil {
				weights[i] = p.Amount.Number
			}
		}
	case DistributeMeta:
		for i, p := range candidates {
			if weight, ok := ast.LookupAmount(p.Metadata, d.Field); ok {
				weights[i] = weight.Number
			}
		}
	}

	total := decimal.Sum(decimal.Zero, weights...)
	if total.IsZero() {
		return nil, fmt.Errorf("%s weights of %d postings sum to zero", d, len(candidates))
	}

	base := div(amount, total)
	shares := make([]decimal.Decimal, len(candidates))
	for i, w := range weights {
		shares[i] = rounder.Round(base.Mul(w), currency)
	}
	return shares, nil
}
