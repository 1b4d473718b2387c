package manipulation

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// SourcePosting is a posting whose units are distributed onto matching targets.
type SourcePosting struct {
	Posting      *ast.Posting
	Distribution Distribution
	Matcher      *Matcher

	// Max is the amount to distribute, the units of the posting.
	Max decimal.Decimal

	distributed bool
}

// Currency returns the currency shares are rounded for.
func (s *SourcePosting) Currency() string {
	return s.Posting.Currency()
}

// Distributed reports whether the source found at least one target.
func (s *SourcePosting) Distributed() bool {
	return s.distributed
}

// TargetPosting is a posting that accumulates shares from sources, keyed by the account
// part the share will be booked on.
type TargetPosting struct {
	// Posting is the original posting with its target-identifying metadata consumed.
	Posting  *ast.Posting
	MatchKey MatchKey

	currency string
	keys     []string
	numbers  map[string]decimal.Decimal
}

func newTargetPosting(p *ast.Posting, key MatchKey) *TargetPosting {
	return &TargetPosting{
		Posting:  p,
		MatchKey: key,
		currency: p.Currency(),
		numbers:  make(map[string]decimal.Decimal),
	}
}

// Add accumulates n under key.
func (t *TargetPosting) Add(key string, n decimal.Decimal, currency string) {
	if t.currency == "" {
		t.currency = currency
	}
	if _, ok := t.numbers[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.numbers[key] = t.numbers[key].Add(n)
}

// Received reports whether any source distributed onto this target.
func (t *TargetPosting) Received() bool {
	return len(t.keys) > 0
}

// Keys returns the keys in the order they were first added.
func (t *TargetPosting) Keys() []string {
	return t.keys
}

// Number returns the accumulated number of key.
func (t *TargetPosting) Number(key string) decimal.Decimal {
	return t.numbers[key]
}

// Sum returns the total of every key.
func (t *TargetPosting) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, key := range t.keys {
		sum = sum.Add(t.numbers[key])
	}
	return sum
}

// Filled returns the posting with its units replaced by the accumulated sum.
func (t *TargetPosting) Filled() *ast.Posting {
	if !t.Received() {
		return t.Posting
	}
	p := t.Posting.Clone()
	p.Amount = ast.NewAmountFromDecimal(t.Sum(), t.currency)
	return p
}

// Materialize returns the postings that replace the target. Each key becomes a posting
// on account:key. A target held at cost absorbs the shares into its per-unit cost
// instead, and books them on account:key against account.
//
// Every touched target asks registry for account to be consolidated into
// account:pricePostfix, next to the account:key accounts.
func (t *TargetPosting) Materialize(pricePostfix string, registry *ConsolidationRegistry) []*ast.Posting {
	if !t.Received() {
		return []*ast.Posting{t.Posting}
	}

	account := t.Posting.Account
	registry.Request(account, account.Join(pricePostfix))
	for _, key := range t.keys {
		registry.AddAdditional(account, account.Join(key))
	}

	if t.hasCost() {
		return t.materializeWithCost()
	}

	postings := []*ast.Posting{t.Posting}
	for _, key := range t.keys {
		postings = append(postings, ast.NewPosting(account.Join(key),
			ast.WithPostingFlag(t.Posting.Flag),
			ast.WithUnits(ast.NewAmountFromDecimal(t.numbers[key], t.currency)),
			ast.WithPostingMetadata(t.Posting.Metadata...),
		))
	}
	return postings
}

func (t *TargetPosting) hasCost() bool {
	p := t.Posting
	return p.Cost != nil && p.Cost.Amount != nil && p.Amount != nil && !p.Amount.Number.IsZero()
}

func (t *TargetPosting) materializeWithCost() []*ast.Posting {
	p := t.Posting
	cost := p.Cost.Amount
	units := p.Amount.Number

	modified := p.Clone()
	modified.Cost = &ast.Cost{
		Amount: ast.NewAmountFromDecimal(div(units.Mul(cost.Number).Add(t.Sum()), units), cost.Currency),
		Date:   p.Cost.Date,
		Label:  p.Cost.Label,
	}

	postings := []*ast.Posting{modified}
	for _, key := range t.keys {
		n := t.numbers[key]
		postings = append(postings,
			ast.NewPosting(p.Account,
				ast.WithPostingFlag(p.Flag),
				ast.WithUnits(ast.NewAmountFromDecimal(n.Neg(), cost.Currency)),
				ast.WithPostingMetadata(p.Metadata...),
			),
			ast.NewPosting(p.Account.Join(key),
				ast.WithPostingFlag(p.Flag),
				ast.WithUnits(ast.NewAmountFromDecimal(n, cost.Currency)),
				ast.WithPostingMetadata(p.Metadata...),
			),
		)
	}
	return postings
}
