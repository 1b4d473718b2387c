// Package balancepad implements the balance_pad_creator plugin.
//
// Bank exports often carry the account balance after each transaction. Recorded as
// posting metadata, the plugin turns it into balance assertions:
//
//	plugin "balance_pad_creator" "{'account': 'Assets:Bank', 'metadata-name-balance-unit': 'balance', 'metadata-name-balance-time': 'time'}"
//
//	2013-05-31 * "Salary"
//	  Assets:Bank      1000 USD
//	    balance: 1200 USD
//	    time: "10:24"
//	  Income:Salary
//
// yields `2013-06-01 balance Assets:Bank 1200 USD`. Only one assertion per day is kept:
// the one with the latest balance time. With a pad account, a pad is inserted the day
// before every assertion that does not match the running balance of the account.
package balancepad

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/ledger"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

// PluginName is the name used in `plugin` directives.
const PluginName = "balance_pad_creator"

// BalanceTimeKey is the metadata key holding the time of day of a balance assertion.
const BalanceTimeKey = "balance-time"

type Config struct {
	Account                 string `yaml:"account"`
	MetadataNameBalanceUnit string `yaml:"metadata-name-balance-unit"`
	MetadataNameBalanceTime string `yaml:"metadata-name-balance-time"`
	PadAccount              string `yaml:"pad-account"`
}

// Creator derives balance assertions and pads for a single account.
type Creator struct {
	account    ast.Account
	unitKey    string
	timeKey    string
	padAccount ast.Account
	tolerance  *ledger.ToleranceConfig
}

// NewCreator validates cfg.
func NewCreator(cfg Config) (*Creator, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("missing field %q", "account")
	}
	account, err := ast.NewAccount(cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", "account", err)
	}
	if cfg.MetadataNameBalanceUnit == "" {
		return nil, fmt.Errorf("missing field %q", "metadata-name-balance-unit")
	}

	c := &Creator{
		account:   account,
		unitKey:   cfg.MetadataNameBalanceUnit,
		timeKey:   cfg.MetadataNameBalanceTime,
		tolerance: ledger.NewToleranceConfig(),
	}
	if cfg.PadAccount != "" {
		if c.padAccount, err = ast.NewAccount(cfg.PadAccount); err != nil {
			return nil, fmt.Errorf("field %q: %w", "pad-account", err)
		}
	}
	return c, nil
}

// candidate is a balance assertion competing for its date.
type candidate struct {
	balance *ast.Balance
	time    string
	timed   bool
}

// beats reports whether c replaces other: a timed assertion beats an untimed one, the
// later time wins and ties go to c.
func (c candidate) beats(other candidate) bool {
	if c.timed != other.timed {
		return c.timed
	}
	return c.time >= other.time
}

// assertions keeps the winning candidate per date, in first-seen date order.
type assertions struct {
	dates []string
	byDay map[string]candidate
}

func (a *assertions) offer(c candidate) {
	day := c.balance.Date.String()
	current, ok := a.byDay[day]
	if !ok {
		a.dates = append(a.dates, day)
		a.byDay[day] = c
		return
	}
	if c.beats(current) {
		a.byDay[day] = c
	}
}

func (a *assertions) balances() []*ast.Balance {
	out := make([]*ast.Balance, 0, len(a.dates))
	for _, day := range a.dates {
		out = append(out, a.byDay[day].balance)
	}
	return out
}

// Create returns entries with balance assertions for the account, and pads when a pad
// account is configured. Postings whose balance metadata is not an amount are reported
// and skipped.
func (c *Creator) Create(ctx context.Context, entries []ast.Directive) ([]ast.Directive, []error) {
	found := &assertions{byDay: make(map[string]candidate)}
	var errs []error

	out := make([]ast.Directive, 0, len(entries))
	for _, entry := range entries {
		switch e := entry.(type) {
		case *ast.Balance:
			if e.Account == c.account {
				time, timed := ast.LookupText(e.Metadata, BalanceTimeKey)
				found.offer(candidate{balance: e, time: time, timed: timed})
				continue
			}
		case *ast.Transaction:
			txn, created, err := c.fromTransaction(e)
			if err != nil {
				errs = append(errs, err)
			}
			for _, cand := range created {
				found.offer(cand)
			}
			out = append(out, txn)
			continue
		}
		out = append(out, entry)
	}

	balances := found.balances()
	for _, b := range balances {
		out = append(out, b)
	}
	ast.Directives(out).SortStable()

	var pads []*ast.Pad
	if c.padAccount != "" {
		pads = c.pads(out)
		for _, p := range pads {
			out = append(out, p)
		}
		ast.Directives(out).SortStable()
	}

	logging.FromContext(ctx).Debug("created balance assertions",
		zap.String("account", string(c.account)),
		zap.Int("balances", len(balances)),
		zap.Int("pads", len(pads)),
	)

	return out, errs
}

// fromTransaction strips the balance metadata off the postings of txn on the account
// and turns it into candidates dated the day after txn.
func (c *Creator) fromTransaction(txn *ast.Transaction) (*ast.Transaction, []candidate, error) {
	var (
		rewritten *ast.Transaction
		created   []candidate
		err       error
	)

	for i, p := range txn.Postings {
		if p.Account != c.account {
			continue
		}
		v, ok := ast.Lookup(p.Metadata, c.unitKey)
		if !ok {
			continue
		}
		if v == nil || v.Amount == nil {
			err = plugin.NewError(txn, "%s of posting %s must be an amount, got %s", c.unitKey, p.Account, v.Type())
			continue
		}

		balance := &ast.Balance{
			Pos:     txn.Pos,
			Date:    txn.Date.AddDays(1),
			Account: c.account,
			Amount:  ast.NewAmountFromDecimal(v.Amount.Number, v.Amount.Currency),
		}
		cand := candidate{balance: balance}
		if c.timeKey != "" {
			cand.time, cand.timed = ast.LookupText(p.Metadata, c.timeKey)
		}
		if cand.timed {
			balance.AddMetadata(ast.NewMetadata(BalanceTimeKey, cand.time))
		}
		created = append(created, cand)

		if rewritten == nil {
			rewritten = txn.Clone()
		}
		stripped := p.Clone()
		stripped.Metadata = ast.Without(p.Metadata, c.unitKey, c.timeKey)
		rewritten.Postings[i] = stripped
	}

	if rewritten == nil {
		return txn, created, err
	}
	return rewritten, created, err
}

// pads walks sorted entries with a running inventory of the account and returns a pad
// for every assertion the inventory does not satisfy. The assertion is assumed to hold
// from then on.
func (c *Creator) pads(sorted []ast.Directive) []*ast.Pad {
	inv := ledger.NewInventory()

	var pads []*ast.Pad
	for _, entry := range sorted {
		switch e := entry.(type) {
		case *ast.Transaction:
			for _, p := range e.Postings {
				if p.Account == c.account {
					inv.AddPosting(p)
				}
			}
		case *ast.Balance:
			if e.Account != c.account {
				continue
			}
			currency := e.Amount.Currency
			if c.tolerance.Equal(e.Amount.Number, inv.Get(currency), currency) {
				continue
			}
			pads = append(pads, &ast.Pad{
				Pos:        e.Pos,
				Date:       e.Date.AddDays(-1),
				Account:    c.account,
				AccountPad: c.padAccount,
			})
			inv.Set(currency, e.Amount.Number)
		}
	}
	return pads
}

// Plugin exposes the Creator as a plugin.
type Plugin struct{}

var _ plugin.Plugin = Plugin{}

func (Plugin) Name() string { return PluginName }

func (Plugin) Apply(ctx context.Context, entries []ast.Directive, config string) ([]ast.Directive, []error, error) {
	var cfg Config
	if err := plugin.DecodeConfig(ast.Position{}, config, &cfg); err != nil {
		return entries, []error{err}, nil
	}

	c, err := NewCreator(cfg)
	if err != nil {
		return nil, nil, err
	}

	out, errs := c.Create(ctx, entries)
	return out, errs, nil
}
