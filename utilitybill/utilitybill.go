// Package utilitybill implements the utility_bill plugin, which spreads a utility bill
// over the months of the period it covers.
//
//	plugin "utility_bill" "{'utilities': [{'type': 'electricity', 'shared-account': 'Expenses:Utilities:Electricity', 'transfer-account': 'Assets:Utilities:Electricity'}]}"
//
//	2022-02-26 * "V-V" "Invoice 1"
//	  utility-type: "electricity"
//	  period-start: 2022-01-04
//	  period-end:   2022-02-22
//	  Assets:Bank                      -7,865 HUF
//	  Expenses:Utilities:Electricity    7,865 HUF
//
// The bill is booked on the transfer account instead, and one transaction per month
// moves the share of that month from the transfer account to the expense account: 4,334
// HUF at 2022-01-31 and 3,531 HUF at 2022-02-22.
package utilitybill

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

// PluginName is the name used in `plugin` directives.
const PluginName = "utility_bill"

// Transaction metadata that marks a bill.
const (
	TypeKey        = "utility-type"
	PeriodStartKey = "period-start"
	PeriodEndKey   = "period-end"
)

type Config struct {
	Utilities []UtilityConfig `yaml:"utilities"`
}

type UtilityConfig struct {
	Type            string `yaml:"type"`
	SharedAccount   string `yaml:"shared-account"`
	TransferAccount string `yaml:"transfer-account"`
}

type utility struct {
	shared   ast.Account
	transfer ast.Account
}

// Distributor spreads bills of the configured utility types.
type Distributor struct {
	utilities map[string]utility
}

// NewDistributor validates cfg.
func NewDistributor(cfg Config) (*Distributor, error) {
	d := &Distributor{utilities: make(map[string]utility, len(cfg.Utilities))}
	for i, u := range cfg.Utilities {
		if u.Type == "" {
			return nil, fmt.Errorf("utility %d: missing field %q", i+1, "type")
		}
		shared, err := ast.NewAccount(u.SharedAccount)
		if err != nil {
			return nil, fmt.Errorf("utility %s: field %q: %w", u.Type, "shared-account", err)
		}
		transfer, err := ast.NewAccount(u.TransferAccount)
		if err != nil {
			return nil, fmt.Errorf("utility %s: field %q: %w", u.Type, "transfer-account", err)
		}
		d.utilities[u.Type] = utility{shared: shared, transfer: transfer}
	}
	return d, nil
}

// Distribute rewrites every bill in entries. A bill that cannot be distributed is
// reported and kept as is.
func (d *Distributor) Distribute(ctx context.Context, entries []ast.Directive) ([]ast.Directive, []error) {
	logger := logging.FromContext(ctx)

	var errs []error
	out := make([]ast.Directive, 0, len(entries))
	for _, entry := range entries {
		txn, ok := entry.(*ast.Transaction)
		if !ok || !ast.Has(txn.Metadata, TypeKey) {
			out = append(out, entry)
			continue
		}

		distributed, err := d.bill(txn)
		if err != nil {
			logger.Warn("utility bill not distributed",
				zap.String("date", txn.Date.String()),
				zap.Error(err),
			)
			errs = append(errs, plugin.NewError(txn, "%s", err))
			out = append(out, entry)
			continue
		}
		for _, t := range distributed {
			out = append(out, t)
		}
	}
	return out, errs
}

// bill returns the rewritten bill followed by one transaction per month of its period.
func (d *Distributor) bill(txn *ast.Transaction) ([]*ast.Transaction, error) {
	kind, _ := ast.LookupText(txn.Metadata, TypeKey)
	u, ok := d.utilities[kind]
	if !ok {
		return nil, fmt.Errorf("unknown utility type %q", kind)
	}

	start, ok := ast.LookupDate(txn.Metadata, PeriodStartKey)
	if !ok {
		return nil, fmt.Errorf("%s must be a date", PeriodStartKey)
	}
	end, ok := ast.LookupDate(txn.Metadata, PeriodEndKey)
	if !ok {
		return nil, fmt.Errorf("%s must be a date", PeriodEndKey)
	}
	days := int(end.Sub(start.Time).Hours() / 24)
	if days <= 0 {
		return nil, fmt.Errorf("period %s to %s is empty", start, end)
	}

	var total *ast.Amount
	parent := txn.Clone()
	parent.Metadata = ast.Without(txn.Metadata, TypeKey, PeriodStartKey, PeriodEndKey)
	for i, p := range txn.Postings {
		if p.Account != u.shared {
			continue
		}
		if total == nil {
			total = p.Amount
		}
		moved := p.Clone()
		moved.Account = u.transfer
		parent.Postings[i] = moved
	}
	if total == nil {
		return nil, fmt.Errorf("no amount booked on %s", u.shared)
	}

	base := total.Number.DivRound(decimal.NewFromInt(int64(days)), 28)
	bills := []*ast.Transaction{parent}
	for _, m := range months(start.Time, end.Time) {
		share := base.Mul(decimal.NewFromInt(int64(m.days))).RoundBank(0)
		bills = append(bills, &ast.Transaction{
			Pos:       txn.Pos,
			Date:      ast.NewDateFromTime(m.date),
			Flag:      txn.Flag,
			Payee:     txn.Payee,
			Narration: txn.Narration,
			Tags:      append([]ast.Tag(nil), txn.Tags...),
			Links:     append([]ast.Link(nil), txn.Links...),
			Postings: []*ast.Posting{
				ast.NewPosting(u.transfer, ast.WithUnits(ast.NewAmountFromDecimal(share.Neg(), total.Currency))),
				ast.NewPosting(u.shared, ast.WithUnits(ast.NewAmountFromDecimal(share, total.Currency))),
			},
		})
	}
	return bills, nil
}

type month struct {
	date time.Time
	days int
}

// months splits the period into calendar months. Each month is dated at its last day,
// except the last one which ends at end. The first month counts the days after start.
func months(start, end time.Time) []month {
	var out []month
	for first := start; ; {
		last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		from := 0
		if first.Equal(start) {
			from = start.Day()
		}

		if last.Year() == end.Year() && last.Month() == end.Month() {
			return append(out, month{date: end, days: end.Day() - from})
		}

		out = append(out, month{date: last, days: last.Day() - from})
		first = last.AddDate(0, 0, 1)
	}
}

// Plugin exposes the Distributor as a plugin.
type Plugin struct{}

var _ plugin.Plugin = Plugin{}

func (Plugin) Name() string { return PluginName }

func (Plugin) Apply(ctx context.Context, entries []ast.Directive, config string) ([]ast.Directive, []error, error) {
	var cfg Config
	if err := plugin.DecodeConfig(ast.Position{}, config, &cfg); err != nil {
		return entries, []error{err}, nil
	}

	d, err := NewDistributor(cfg)
	if err != nil {
		return nil, nil, err
	}

	out, errs := d.Distribute(ctx, entries)
	return out, errs, nil
}
