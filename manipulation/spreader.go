package manipulation

import (
	"context"

	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/logging"
)

const (
	TypeSpreader = "posting-spreader"
	TypeFiller   = "posting-filler"

	matchModeSameAccount = "same-account"
)

// Spreader moves the amount of source postings onto matching expense postings. Each
// target keeps its own amount on a price account and books its share on a derived
// account, so
//
//	Expenses:Discount   -5 USD
//	  spread-source-id: "all"
//	  spread-base: "unit"
//	Expenses:Bread      15 USD
//
// becomes Expenses:Bread:Price 15 USD and Expenses:Bread:Discount -1.07 USD.
type Spreader struct {
	factory      WrapperFactory
	namer        AccountNamer
	rounder      Rounder
	pricePostfix string
	opts         Options
}

var _ Manipulator = (*Spreader)(nil)

// NewSpreader creates a spreader. In "same-account" match mode sources spread onto
// postings of their own account and name the derived account from metadata; otherwise
// sources and targets are paired by ids and the derived account is named after the
// last part of the source account.
func NewSpreader(cfg SpreaderConfig, opts Options) (*Spreader, error) {
	s := &Spreader{
		rounder:      NewRounder(cfg.Roundings),
		pricePostfix: cfg.ConsolidatePriceAccountPostfix,
		opts:         opts,
	}
	if s.pricePostfix == "" {
		s.pricePostfix = DefaultPricePostfix
	}

	if cfg.MatchMode == matchModeSameAccount {
		if cfg.MetadataNameSpreadAccountPostfix == "" {
			return nil, &MissingFieldError{Field: "metadata-name-spread-account-postfix"}
		}
		if cfg.SpreadBase == "" {
			return nil, &MissingFieldError{Field: "spread-base"}
		}
		s.factory = WrapperFactory{
			Matchers:     AccountMatcherFactory{AccountPostfixKey: cfg.MetadataNameSpreadAccountPostfix},
			Distribution: FixedValue(cfg.SpreadBase),
		}
		s.namer = MetadataName{Key: cfg.MetadataNameSpreadAccountPostfix, FromSource: true}
		return s, nil
	}

	if cfg.MetadataNameSpreadSourceID == "" {
		return nil, &MissingFieldError{Field: "metadata-name-spread-source-id"}
	}
	if cfg.MetadataNameSpreadBase == "" && cfg.SpreadBase == "" {
		return nil, &MissingFieldError{Field: "metadata-name-spread-base"}
	}
	s.factory = WrapperFactory{
		Matchers: IDMatcherFactory{
			SourceIDKey: cfg.MetadataNameSpreadSourceID,
			TargetIDKey: cfg.MetadataNameSpreadTargetID,
		},
		Distribution: distributionGetter(cfg.MetadataNameSpreadBase, cfg.SpreadBase),
	}
	s.namer = LastPartName{FromSource: true}
	return s, nil
}

func (s *Spreader) Type() string { return TypeSpreader }

func (s *Spreader) Manipulate(ctx context.Context, txn *ast.Transaction) (*Result, error) {
	w, err := s.factory.Wrap(txn.Postings)
	if err != nil {
		return nil, err
	}
	if len(w.Sources) == 0 {
		return unchanged(txn), nil
	}

	if err := spread(ctx, txn, w, s.namer, s.rounder, s.opts); err != nil {
		return nil, err
	}

	registry := NewConsolidationRegistry()
	var postings []*ast.Posting
	for _, slot := range w.Slots {
		switch {
		case slot.Source != nil:
			if !slot.Source.Distributed() {
				postings = append(postings, slot.Source.Posting)
			}
		case slot.Target != nil:
			postings = append(postings, slot.Target.Materialize(s.pricePostfix, registry)...)
		default:
			postings = append(postings, slot.Posting)
		}
	}

	return &Result{
		Transactions:   []*ast.Transaction{withPostings(txn, postings)},
		Consolidations: registry.Records(),
	}, nil
}

// Filler moves the amount of source postings onto matching expense postings, replacing
// the amount of every target that received a share.
type Filler struct {
	factory WrapperFactory
	rounder Rounder
	opts    Options
}

var _ Manipulator = (*Filler)(nil)

// NewFiller creates a filler pairing sources and targets by ids.
func NewFiller(cfg FillerConfig, opts Options) (*Filler, error) {
	if cfg.MetadataNameFillSourceID == "" {
		return nil, &MissingFieldError{Field: "metadata-name-fill-source-id"}
	}
	if cfg.MetadataNameFillBase == "" {
		return nil, &MissingFieldError{Field: "metadata-name-fill-base"}
	}

	return &Filler{
		factory: WrapperFactory{
			Matchers: IDMatcherFactory{
				SourceIDKey: cfg.MetadataNameFillSourceID,
				TargetIDKey: cfg.MetadataNameFillTargetID,
			},
			Distribution: MetadataValue{Key: cfg.MetadataNameFillBase},
		},
		rounder: NewRounder(cfg.Roundings),
		opts:    opts,
	}, nil
}

func (f *Filler) Type() string { return TypeFiller }

func (f *Filler) Manipulate(ctx context.Context, txn *ast.Transaction) (*Result, error) {
	w, err := f.factory.Wrap(txn.Postings)
	if err != nil {
		return nil, err
	}
	if len(w.Sources) == 0 {
		return unchanged(txn), nil
	}

	if err := spread(ctx, txn, w, FixedName(""), f.rounder, f.opts); err != nil {
		return nil, err
	}

	var postings []*ast.Posting
	for _, slot := range w.Slots {
		switch {
		case slot.Source != nil:
			if !slot.Source.Distributed() {
				postings = append(postings, slot.Source.Posting)
			}
		case slot.Target != nil:
			postings = append(postings, slot.Target.Filled())
		default:
			postings = append(postings, slot.Posting)
		}
	}

	return &Result{Transactions: []*ast.Transaction{withPostings(txn, postings)}}, nil
}

// spread distributes every source of w onto its candidates.
func spread(ctx context.Context, txn *ast.Transaction, w *Wrapped, namer AccountNamer, rounder Rounder, opts Options) error {
	logger := logging.FromContext(ctx)

	for _, source := range w.Sources {
		candidates := w.Candidates(source)
		if len(candidates) == 0 {
			logger.Warn("source posting has no matching targets",
				zap.String("account", string(source.Posting.Account)),
				zap.Stringer("date", txn.Date),
				zap.Strings("key", source.Matcher.Key),
			)
			if opts.OnUndistributed != nil {
				opts.OnUndistributed(txn, source.Posting)
			}
			continue
		}

		postings := make([]*ast.Posting, len(candidates))
		for i, t := range candidates {
			postings[i] = t.Posting
		}

		shares, err := Distribute(source.Distribution, source.Max, postings, rounder, source.Currency())
		if err != nil {
			return &DistributionError{Account: source.Posting.Account, Message: err.Error()}
		}

		for i, t := range candidates {
			key, ok := namer.AccountName(source.Posting, t.Posting)
			if !ok {
				return &MissingFieldError{Field: namerField(namer), Account: source.Posting.Account}
			}
			t.Add(key, shares[i], source.Currency())
		}
		source.distributed = true
	}

	return nil
}

func namerField(namer AccountNamer) string {
	if n, ok := namer.(MetadataName); ok {
		return n.Key
	}
	return "account name"
}

// distributionGetter reads the distribution from metadata, falling back to a fixed
// configured value.
func distributionGetter(key, fixed string) ValueGetter {
	var getters fallbackValue
	if key != "" {
		getters = append(getters, MetadataValue{Key: key})
	}
	if fixed != "" {
		getters = append(getters, FixedValue(fixed))
	}
	if len(getters) == 1 {
		return getters[0]
	}
	return getters
}
