package manipulation

import (
	"context"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

const (
	TypeOriginalPrice = "posting-consolidator-original-price"
	TypeDiscounter    = "posting-consolidator-discounter"
)

// extractor rewrites every posting that carries an amount under key into several
// postings, and consolidates its account.
type extractor struct {
	key             string
	pricePostfix    string
	discountPostfix string
	rewrite         func(p *ast.Posting, amount *ast.Amount, md []*ast.Metadata, discount ast.Account) ([]*ast.Posting, error)
}

func (e *extractor) manipulate(txn *ast.Transaction) (*Result, error) {
	registry := NewConsolidationRegistry()

	var postings []*ast.Posting
	changed := false
	for _, p := range txn.Postings {
		v, ok := ast.Lookup(p.Metadata, e.key)
		if !ok {
			postings = append(postings, p)
			continue
		}
		if v == nil || v.Amount == nil {
			return nil, &MissingFieldError{Field: e.key, Account: p.Account, Reason: "must be an amount"}
		}

		discount := p.Account.Join(e.discountPostfix)
		rewritten, err := e.rewrite(p, v.Amount, ast.Without(p.Metadata, e.key), discount)
		if err != nil {
			return nil, err
		}

		registry.Request(p.Account, p.Account.Join(e.pricePostfix))
		registry.AddAdditional(p.Account, discount)
		postings = append(postings, rewritten...)
		changed = true
	}

	if !changed {
		return unchanged(txn), nil
	}

	return &Result{
		Transactions:   []*ast.Transaction{withPostings(txn, postings)},
		Consolidations: registry.Records(),
	}, nil
}

func newExtractor(key, keyField, pricePostfix, discountPostfix string) (*extractor, error) {
	if key == "" {
		return nil, &MissingFieldError{Field: keyField}
	}
	if pricePostfix == "" {
		pricePostfix = DefaultPricePostfix
	}
	if discountPostfix == "" {
		discountPostfix = DefaultDiscountPostfix
	}
	return &extractor{key: key, pricePostfix: pricePostfix, discountPostfix: discountPostfix}, nil
}

// OriginalPrice splits a posting that records the price before discount into the
// original price and the discount:
//
//	Expenses:Bread   8 USD
//	  original-price: 10 USD
//
// becomes Expenses:Bread 10 USD and Expenses:Bread:Discount -2 USD.
type OriginalPrice struct {
	*extractor
}

var _ Manipulator = (*OriginalPrice)(nil)

func NewOriginalPrice(cfg OriginalPriceConfig) (*OriginalPrice, error) {
	e, err := newExtractor(cfg.MetadataNameOriginalPrice, "metadata-name-original-price",
		cfg.ConsolidatePriceAccountPostfix, cfg.ConsolidateDiscountAccountPostfix)
	if err != nil {
		return nil, err
	}

	e.rewrite = func(p *ast.Posting, original *ast.Amount, md []*ast.Metadata, discount ast.Account) ([]*ast.Posting, error) {
		if p.Amount == nil {
			return nil, &MissingFieldError{Field: "units", Account: p.Account}
		}

		price := p.Clone()
		price.Amount = original
		price.Metadata = md

		return []*ast.Posting{price, {
			Flag:       p.Flag,
			Account:    discount,
			Amount:     ast.NewAmountFromDecimal(p.Amount.Number.Sub(original.Number), p.Amount.Currency),
			Cost:       p.Cost,
			Price:      p.Price,
			PriceTotal: p.PriceTotal,
		}}, nil
	}

	return &OriginalPrice{e}, nil
}

func (o *OriginalPrice) Type() string { return TypeOriginalPrice }

func (o *OriginalPrice) Manipulate(_ context.Context, txn *ast.Transaction) (*Result, error) {
	return o.manipulate(txn)
}

// Discounter books a discount recorded in metadata on a dedicated account:
//
//	Expenses:Detergent   2.15 L {1,860 HUF}
//	  coupon: 1,000 HUF
//
// keeps the posting and adds Expenses:Detergent 1,000 HUF and
// Expenses:Detergent:Discount -1,000 HUF.
type Discounter struct {
	*extractor
}

var _ Manipulator = (*Discounter)(nil)

func NewDiscounter(cfg DiscounterConfig) (*Discounter, error) {
	e, err := newExtractor(cfg.MetadataNameDiscount, "metadata-name-discount",
		cfg.ConsolidatePriceAccountPostfix, cfg.ConsolidateDiscountAccountPostfix)
	if err != nil {
		return nil, err
	}

	e.rewrite = func(p *ast.Posting, amount *ast.Amount, md []*ast.Metadata, discount ast.Account) ([]*ast.Posting, error) {
		kept := p.Clone()
		kept.Metadata = md

		return []*ast.Posting{
			kept,
			{Account: p.Account, Amount: ast.NewAmountFromDecimal(amount.Number, amount.Currency)},
			{Account: discount, Amount: amount.Neg()},
		}, nil
	}

	return &Discounter{e}, nil
}

func (d *Discounter) Type() string { return TypeDiscounter }

func (d *Discounter) Manipulate(_ context.Context, txn *ast.Transaction) (*Result, error) {
	return d.manipulate(txn)
}
