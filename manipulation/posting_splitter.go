package manipulation

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

const (
	TypePostingSplitter = "posting-splitter"

	splitModeEqual        = "equal"
	splitModeProportional = "proportional"
	splitModeDiscount     = "discount"

	discountKeyPrefix = "discount-"
	discountIDsKey    = "discount-ids"
)

// PostingSplitter fills zero-amount postings from a single flagged posting.
//
// In "equal" mode the flagged amount, plus every sibling that keeps its amount, is
// split evenly across the zero-amount siblings. In "proportional" mode it is split by
// an amount stored on each sibling, optionally converting through an exchange rate. A
// transaction flagged with "discount" distributes its `discount-<n>` amounts onto the
// postings listing n in `discount-ids`.
type PostingSplitter struct {
	typeKey         string
	skipKey         string
	unitKey         string
	exchangeRateKey string
	ratioKey        string
	rounder         Rounder
	pricePostfix    string
	discountPostfix string
}

var _ Manipulator = (*PostingSplitter)(nil)

func NewPostingSplitter(cfg PostingSplitterConfig) (*PostingSplitter, error) {
	if cfg.MetadataNameType == "" {
		return nil, &MissingFieldError{Field: "metadata-name-type"}
	}

	s := &PostingSplitter{
		typeKey:         cfg.MetadataNameType,
		skipKey:         cfg.MetadataNameSkipSplit,
		unitKey:         cfg.MetadataNameUnit,
		exchangeRateKey: cfg.MetadataNameExchangeRate,
		ratioKey:        cfg.MetadataNameSplitRatio,
		rounder:         NewRounder(cfg.Roundings),
		pricePostfix:    cfg.ConsolidatePriceAccountPostfix,
		discountPostfix: cfg.ConsolidateDiscountAccountPostfix,
	}
	if s.pricePostfix == "" {
		s.pricePostfix = DefaultPricePostfix
	}
	if s.discountPostfix == "" {
		s.discountPostfix = DefaultDiscountPostfix
	}
	return s, nil
}

func (s *PostingSplitter) Type() string { return TypePostingSplitter }

func (s *PostingSplitter) Manipulate(_ context.Context, txn *ast.Transaction) (*Result, error) {
	if mode, ok := ast.LookupText(txn.Metadata, s.typeKey); ok && mode == splitModeDiscount {
		return s.splitDiscounts(txn)
	}

	flagged := -1
	for i, p := range txn.Postings {
		if ast.Has(p.Metadata, s.typeKey) {
			if flagged >= 0 {
				return unchanged(txn), nil
			}
			flagged = i
		}
	}
	if flagged < 0 {
		return unchanged(txn), nil
	}

	mode, _ := ast.LookupText(txn.Postings[flagged].Metadata, s.typeKey)
	switch {
	case mode == splitModeEqual:
		return s.splitEqual(txn, flagged)
	case mode == splitModeProportional && s.ratioKey != "":
		return s.splitProportional(txn, flagged)
	default:
		return unchanged(txn), nil
	}
}

func (s *PostingSplitter) modifiable(p *ast.Posting) bool {
	if p.Amount == nil || !p.Amount.Number.IsZero() {
		return false
	}
	return s.skipKey == "" || !ast.Has(p.Metadata, s.skipKey)
}

func (s *PostingSplitter) splitEqual(txn *ast.Transaction, flagged int) (*Result, error) {
	source := txn.Postings[flagged]
	if source.Amount == nil {
		return nil, &MissingFieldError{Field: "units", Account: source.Account}
	}

	number := source.Amount.Number
	divider := int64(0)
	for i, p := range txn.Postings {
		switch {
		case i == flagged:
		case s.modifiable(p):
			divider++
		case p.Amount != nil:
			number = number.Add(p.Amount.Number)
		}
	}
	if divider == 0 {
		return nil, &DistributionError{Account: source.Account, Message: "no zero-amount posting to split onto"}
	}

	currency := source.Amount.Currency
	share := s.rounder.Round(div(number, decimal.NewFromInt(divider)), currency).Neg()

	postings := make([]*ast.Posting, len(txn.Postings))
	for i, p := range txn.Postings {
		switch {
		case i == flagged:
			postings[i] = s.withoutType(p)
		case s.modifiable(p):
			postings[i] = ast.NewPosting(p.Account,
				ast.WithUnits(ast.NewAmountFromDecimal(share, currency)),
				ast.WithPostingMetadata(p.Metadata...),
			)
		default:
			postings[i] = p
		}
	}

	return &Result{Transactions: []*ast.Transaction{withPostings(txn, postings)}}, nil
}

func (s *PostingSplitter) splitProportional(txn *ast.Transaction, flagged int) (*Result, error) {
	source := s.withoutType(txn.Postings[flagged])

	var toSplit decimal.Decimal
	var cost *ast.Cost
	unit, hasUnit := s.lookupAmount(source, s.unitKey)
	rate, hasRate := s.lookupAmount(source, s.exchangeRateKey)
	if hasUnit && hasRate {
		toSplit = unit.Number
		cost = &ast.Cost{
			Amount: ast.NewAmountFromDecimal(rate.Number, rate.Currency),
			Date:   txn.Date,
		}
		source.Metadata = ast.Without(source.Metadata, s.exchangeRateKey)
	} else {
		if source.Amount == nil {
			return nil, &MissingFieldError{Field: "units", Account: source.Account}
		}
		toSplit = source.Amount.Number.Neg()
	}

	total := decimal.Zero
	for i, p := range txn.Postings {
		if i == flagged {
			continue
		}
		if ratio, ok := ast.LookupAmount(p.Metadata, s.ratioKey); ok {
			total = total.Add(ratio.Number)
		}
	}
	if total.IsZero() {
		return nil, &DistributionError{Account: source.Account, Message: s.ratioKey + " amounts sum to zero"}
	}

	sum := decimal.Zero
	postings := make([]*ast.Posting, len(txn.Postings))
	for i, p := range txn.Postings {
		ratio, ok := ast.LookupAmount(p.Metadata, s.ratioKey)
		if i == flagged || !ok {
			postings[i] = p
			continue
		}

		share := s.rounder.Round(div(ratio.Number, total).Mul(toSplit), ratio.Currency)
		sum = sum.Add(share)
		postings[i] = ast.NewPosting(p.Account,
			ast.WithUnits(ast.NewAmountFromDecimal(share, ratio.Currency)),
			ast.WithCost(cost),
			ast.WithPostingMetadata(p.Metadata...),
		)
	}

	if cost != nil {
		source.Metadata = ast.With(source.Metadata, s.unitKey, &ast.MetadataValue{
			Amount: ast.NewAmountFromDecimal(sum, unit.Currency),
		})
	}
	postings[flagged] = source

	return &Result{Transactions: []*ast.Transaction{withPostings(txn, postings)}}, nil
}

func (s *PostingSplitter) lookupAmount(p *ast.Posting, key string) (*ast.Amount, bool) {
	if key == "" {
		return nil, false
	}
	return ast.LookupAmount(p.Metadata, key)
}

func (s *PostingSplitter) withoutType(p *ast.Posting) *ast.Posting {
	c := p.Clone()
	c.Metadata = ast.Without(p.Metadata, s.typeKey)
	return c
}

type discount struct {
	id     string
	n      int
	amount *ast.Amount
}

// discounts returns the `discount-<n>` amounts of the transaction, ordered by n.
func discounts(md []*ast.Metadata) []discount {
	var out []discount
	for _, m := range md {
		if !strings.HasPrefix(m.Key, discountKeyPrefix) || m.Value == nil || m.Value.Amount == nil {
			continue
		}
		id := strings.TrimPrefix(m.Key, discountKeyPrefix)
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		out = append(out, discount{id: id, n: n, amount: m.Value.Amount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].n < out[j].n })
	return out
}

func (s *PostingSplitter) splitDiscounts(txn *ast.Transaction) (*Result, error) {
	ids := make([]MatchKey, len(txn.Postings))
	listed := make([]bool, len(txn.Postings))
	for i, p := range txn.Postings {
		if text, ok := ast.LookupText(p.Metadata, discountIDsKey); ok {
			ids[i], listed[i] = parseIDs(text), true
		}
	}

	shares := make([][]*ast.Amount, len(txn.Postings))
	for _, d := range discounts(txn.Metadata) {
		matcher := &Matcher{Key: MatchKey{d.id}}

		var indexes []int
		var candidates []*ast.Posting
		for i, p := range txn.Postings {
			if len(ids[i]) > 0 && matcher.Matches(ids[i]) {
				indexes = append(indexes, i)
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		numbers, err := Distribute(Distribution{Kind: DistributeUnit}, d.amount.Number, candidates, Rounder{}, "")
		if err != nil {
			return nil, &DistributionError{Account: ast.Account(discountKeyPrefix + d.id), Message: err.Error()}
		}
		for k, i := range indexes {
			currency := candidates[k].Currency()
			shares[i] = append(shares[i], ast.NewAmountFromDecimal(s.rounder.Round(numbers[k], currency).Neg(), currency))
		}
	}

	registry := NewConsolidationRegistry()
	var postings []*ast.Posting
	for i, p := range txn.Postings {
		if !listed[i] {
			postings = append(postings, p)
			continue
		}

		kept := p.Clone()
		kept.Metadata = ast.Without(p.Metadata, discountIDsKey)
		postings = append(postings, kept)
		if len(shares[i]) == 0 {
			continue
		}

		account := p.Account.Join(s.discountPostfix)
		registry.Request(p.Account, p.Account.Join(s.pricePostfix))
		registry.AddAdditional(p.Account, account)
		for _, share := range shares[i] {
			postings = append(postings, &ast.Posting{Account: account, Amount: share})
		}
	}

	out := withPostings(txn, postings)
	out.Metadata = ast.Without(txn.Metadata, s.typeKey)

	return &Result{
		Transactions:   []*ast.Transaction{out},
		Consolidations: registry.Records(),
	}, nil
}
