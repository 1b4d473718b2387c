package manipulation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// Orchestrator runs transactions through a pipeline of manipulators and applies the
// resulting account consolidations to the whole ledger.
type Orchestrator struct {
	Manipulators []Manipulator
	Registry     *ConsolidationRegistry
}

// NewOrchestrator builds the pipeline described by cfg, in order.
func NewOrchestrator(cfg Config, opts Options) (*Orchestrator, error) {
	o := &Orchestrator{Registry: NewConsolidationRegistry()}

	for i, c := range cfg.Manipulators {
		factory, ok := factories[c.Type]
		if !ok {
			return nil, &UnknownManipulatorError{Type: c.Type}
		}

		m, err := factory(c, opts)
		if err != nil {
			return nil, fmt.Errorf("manipulator %d (%s): %w", i+1, c.Type, err)
		}
		o.Manipulators = append(o.Manipulators, m)
	}

	return o, nil
}

// Run manipulates every transaction of entries and consolidates the result. Entries
// other than transactions keep their position. The first manipulator error aborts the
// run.
func (o *Orchestrator) Run(ctx context.Context, entries []ast.Directive) ([]ast.Directive, error) {
	// work[i] holds what entry i has become so far; consolidations[i] what it asked for.
	work := make([][]*ast.Transaction, len(entries))
	consolidations := make([][]*ConsolidationData, len(entries))
	for i, entry := range entries {
		if txn, ok := entry.(*ast.Transaction); ok {
			work[i] = []*ast.Transaction{txn}
		}
	}

	for _, m := range o.Manipulators {
		if err := o.runStage(ctx, m, work, consolidations); err != nil {
			return nil, err
		}
	}

	for _, data := range consolidations {
		o.Registry.Merge(data...)
	}

	logging.FromContext(ctx).Debug("manipulated entries",
		zap.Int("entries", len(entries)),
		zap.Int("consolidated_accounts", o.Registry.Len()),
	)

	timer := telemetry.FromContext(ctx).Start("consolidate")
	defer timer.End()

	out := make([]ast.Directive, 0, len(entries))
	for i, entry := range entries {
		if work[i] == nil {
			out = append(out, o.consolidate(entry)...)
			continue
		}
		for _, txn := range work[i] {
			out = append(out, o.consolidate(txn)...)
		}
	}
	return out, nil
}

func (o *Orchestrator) runStage(ctx context.Context, m Manipulator, work [][]*ast.Transaction, consolidations [][]*ConsolidationData) error {
	timer := telemetry.FromContext(ctx).Start(m.Type())
	defer timer.End()

	for i, txns := range work {
		if txns == nil {
			continue
		}

		next := make([]*ast.Transaction, 0, len(txns))
		for _, txn := range txns {
			result, err := m.Manipulate(ctx, txn)
			if err != nil {
				return &ManipulationError{Manipulator: m.Type(), Directive: txn, Err: err}
			}
			next = append(next, result.Transactions...)
			consolidations[i] = append(consolidations[i], result.Consolidations...)
		}
		work[i] = next
	}

	return nil
}

// consolidate applies the registry to a single entry.
func (o *Orchestrator) consolidate(entry ast.Directive) []ast.Directive {
	switch e := entry.(type) {
	case *ast.Open:
		data, ok := o.Registry.Lookup(e.Account)
		if !ok {
			return []ast.Directive{e}
		}

		opens := []ast.Directive{reopen(e, data.ToAccount)}
		for _, account := range data.AdditionalAccounts {
			opens = append(opens, reopen(e, account))
		}
		return opens

	case *ast.Transaction:
		var txn *ast.Transaction
		for i, p := range e.Postings {
			data, ok := o.Registry.Lookup(p.Account)
			if !ok {
				continue
			}
			if txn == nil {
				txn = e.Clone()
			}
			retargeted := p.Clone()
			retargeted.Account = data.ToAccount
			txn.Postings[i] = retargeted
		}
		if txn == nil {
			return []ast.Directive{e}
		}
		return []ast.Directive{txn}

	default:
		return []ast.Directive{entry}
	}
}

func reopen(open *ast.Open, account ast.Account) *ast.Open {
	c := *open
	c.Account = account
	c.ConstraintCurrencies = append([]string(nil), open.ConstraintCurrencies...)
	c.Metadata = append([]*ast.Metadata(nil), open.Metadata...)
	return &c
}
