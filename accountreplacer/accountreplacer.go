// Package accountreplacer implements the account_replacer plugin, which renames accounts
// with regular expressions.
//
//	plugin "account_replacer" "{'replace-rules': [{'replace-from': '^Expenses:Groceries', 'replace-to': 'Expenses:Recurring:Groceries'}]}"
//
// Rules apply in order, each one to the result of the previous rule. Patterns use Go
// regexp syntax and replacements may refer to groups as $1 or ${name}.
package accountreplacer

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

// PluginName is the name used in `plugin` directives.
const PluginName = "account_replacer"

// Config is the configuration of the plugin.
type Config struct {
	ReplaceRules []RuleConfig `yaml:"replace-rules"`
}

type RuleConfig struct {
	From string `yaml:"replace-from"`
	To   string `yaml:"replace-to"`
}

type rule struct {
	from *regexp.Regexp
	to   string
}

// Replacer renames the accounts of entries.
type Replacer struct {
	rules []rule
}

// NewReplacer compiles the rules of cfg.
func NewReplacer(cfg Config) (*Replacer, error) {
	r := &Replacer{}
	for i, rc := range cfg.ReplaceRules {
		re, err := regexp.Compile(rc.From)
		if err != nil {
			return nil, fmt.Errorf("replace rule %d: invalid replace-from %q: %w", i+1, rc.From, err)
		}
		r.rules = append(r.rules, rule{from: re, to: rc.To})
	}
	return r, nil
}

// Account applies every rule to account.
func (r *Replacer) Account(account ast.Account) ast.Account {
	name := string(account)
	for _, rule := range r.rules {
		name = rule.from.ReplaceAllString(name, rule.to)
	}
	return ast.Account(name)
}

// Entry returns entry with its accounts renamed. The entry itself is returned when no
// account changes.
func (r *Replacer) Entry(entry ast.Directive) ast.Directive {
	switch e := entry.(type) {
	case *ast.Transaction:
		var txn *ast.Transaction
		for i, p := range e.Postings {
			account := r.Account(p.Account)
			if account == p.Account {
				continue
			}
			if txn == nil {
				txn = e.Clone()
			}
			renamed := p.Clone()
			renamed.Account = account
			txn.Postings[i] = renamed
		}
		if txn == nil {
			return e
		}
		return txn

	case *ast.Open:
		if account := r.Account(e.Account); account != e.Account {
			c := *e
			c.Account = account
			return &c
		}
	case *ast.Close:
		if account := r.Account(e.Account); account != e.Account {
			c := *e
			c.Account = account
			return &c
		}
	case *ast.Balance:
		if account := r.Account(e.Account); account != e.Account {
			c := *e
			c.Account = account
			return &c
		}
	case *ast.Pad:
		account, pad := r.Account(e.Account), r.Account(e.AccountPad)
		if account != e.Account || pad != e.AccountPad {
			c := *e
			c.Account = account
			c.AccountPad = pad
			return &c
		}
	}

	return entry
}

// Plugin exposes the Replacer as a plugin.
type Plugin struct{}

var _ plugin.Plugin = Plugin{}

func (Plugin) Name() string { return PluginName }

// Apply renames the accounts of entries. Configuration problems are reported as soft
// errors and leave entries unchanged.
func (Plugin) Apply(ctx context.Context, entries []ast.Directive, config string) ([]ast.Directive, []error, error) {
	var cfg Config
	if err := plugin.DecodeConfig(ast.Position{}, config, &cfg); err != nil {
		return entries, []error{err}, nil
	}
	if len(cfg.ReplaceRules) == 0 {
		return entries, nil, nil
	}

	r, err := NewReplacer(cfg)
	if err != nil {
		return entries, []error{&plugin.Error{Message: err.Error()}}, nil
	}

	out := make([]ast.Directive, len(entries))
	renamed := 0
	for i, entry := range entries {
		out[i] = r.Entry(entry)
		if out[i] != entry {
			renamed++
		}
	}

	logging.FromContext(ctx).Debug("replaced accounts",
		zap.Int("rules", len(r.rules)),
		zap.Int("entries", renamed),
	)

	return out, nil, nil
}
