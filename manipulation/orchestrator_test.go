package manipulation

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// recordingCollector remembers the names of started timers.
type recordingCollector struct {
	names []string
}

func (c *recordingCollector) Start(name string) telemetry.Timer {
	c.names = append(c.names, name)
	return recordingTimer{c}
}

func (c *recordingCollector) Report(io.Writer, *telemetry.Styles) {}

type recordingTimer struct {
	c *recordingCollector
}

func (t recordingTimer) End() {}

func (t recordingTimer) Child(name string) telemetry.Timer {
	return t.c.Start(name)
}

func TestOrchestratorPipeline(t *testing.T) {
	config := `{'manipulators': [
  {'type': 'transaction-splitter', 'metadata-name-date': 'transaction-date', 'transfer-account': 'Assets:Transfer', 'dated-posting-move-mode': 'stay'},
  {'type': 'posting-consolidator-original-price', 'metadata-name-original-price': 'original-price'}
]}`

	collector := &recordingCollector{}
	ctx := telemetry.WithCollector(context.Background(), collector)
	tree := parser.MustParseString(context.Background(), `2010-08-31 open Expenses:Bread USD "STRICT"

2013-06-03 * "Purchase"
  Liabilities:DebitCard       -8 USD
    transaction-date: 2013-05-31
  Expenses:Bread               8 USD
    original-price:           10 USD

2013-06-04 balance Liabilities:DebitCard  -8 USD
`)

	out, soft, err := NewPlugin().Apply(ctx, tree.Directives, config)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(soft))

	assert.Equal(t, `2010-08-31 open Expenses:Bread:Price
2010-08-31 open Expenses:Bread:Discount
2013-06-03 "Purchase"
  Liabilities:DebitCard -8 USD
  Assets:Transfer 8 USD
2013-05-31 "Purchase"
  Expenses:Bread:Price 10 USD
  Expenses:Bread:Discount -2 USD
  Assets:Transfer -8 USD
2013-06-04 balance
`, render(out))

	for _, entry := range out[:2] {
		open := entry.(*ast.Open)
		assert.Equal(t, []string{"USD"}, open.ConstraintCurrencies)
		assert.Equal(t, "STRICT", open.BookingMethod)
	}

	assert.Equal(t, []string{TypeTransactionSplitter, TypeOriginalPrice, "consolidate"}, collector.names)
}

func TestOrchestratorWithoutManipulators(t *testing.T) {
	source := `2010-08-31 open Expenses:Bread

2013-06-03 * "Purchase"
  Assets:Cash        -8 USD
  Expenses:Bread      8 USD
`
	for _, config := range []string{"", "{'manipulators': []}"} {
		t.Run(config, func(t *testing.T) {
			assert.Equal(t, `2010-08-31 open Expenses:Bread
2013-06-03 "Purchase"
  Assets:Cash -8 USD
  Expenses:Bread 8 USD
`, render(apply(t, config, source)))
		})
	}
}

func TestOrchestratorLeavesInputUntouched(t *testing.T) {
	ctx := context.Background()
	tree := parser.MustParseString(ctx, `2013-06-03 * "Purchase"
  Assets:Bank:Checking      -65 USD
  Expenses:Discount          -5 USD
    spread-source-id: "all"
    spread-base: "unit"
  Expenses:Bread             70 USD
    spread-target-id: "1"
`)
	before := render(tree.Directives)

	_, _, err := NewPlugin().Apply(ctx, tree.Directives, idSpreader)
	assert.NoError(t, err)

	assert.Equal(t, before, render(tree.Directives))
	bread := tree.Directives[0].(*ast.Transaction).Postings[2]
	assert.True(t, ast.Has(bread.Metadata, "spread-target-id"))
}

func TestPluginConfigErrors(t *testing.T) {
	ctx := context.Background()
	tree := parser.MustParseString(ctx, `2013-06-03 * "Purchase"
  Assets:Cash        -8 USD
  Expenses:Bread      8 USD
`)

	t.Run("unknown manipulator", func(t *testing.T) {
		_, _, err := NewPlugin().Apply(ctx, tree.Directives, `{'manipulators': [{'type': 'posting-merger'}]}`)

		var unknown *UnknownManipulatorError
		assert.True(t, errors.As(err, &unknown))
		assert.EqualError(t, err, `manipulator type not implemented: "posting-merger"`)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, _, err := NewPlugin().Apply(ctx, tree.Directives, `{'manipulators': [{'type': 'posting-splitter'}]}`)
		assert.EqualError(t, err, `manipulator 1 (posting-splitter): missing field "metadata-name-type"`)
	})

	t.Run("malformed config", func(t *testing.T) {
		out, soft, err := NewPlugin().Apply(ctx, tree.Directives, `{'manipulators': [`)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(soft))
		assert.Equal(t, 1, len(out))

		var perr *plugin.Error
		assert.True(t, errors.As(soft[0], &perr))
		assert.Contains(t, perr.Message, "invalid plugin configuration")
	})
}

func TestManipulationErrorFormatting(t *testing.T) {
	txn := ast.NewTransaction(ast.MustNewDate("2013-06-03"), "Purchase")
	err := &ManipulationError{Manipulator: TypeSpreader, Directive: txn, Err: &MissingFieldError{Field: "spread-base", Account: "Expenses:Discount"}}
	assert.Equal(t, `2013-06-03: posting-spreader: missing field "spread-base" on posting Expenses:Discount`, err.Error())

	txn.Pos = ast.Position{Filename: "ledger.beancount", Line: 12}
	assert.Equal(t, `ledger.beancount:12: posting-spreader: missing field "spread-base" on posting Expenses:Discount`, err.Error())
	assert.Equal(t, 12, err.GetPosition().Line)
}
