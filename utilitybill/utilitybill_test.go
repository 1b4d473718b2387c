package utilitybill

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
)

const config = `{'utilities': [{'type': 'electricity', 'shared-account': 'Expenses:Utilities:Electricity', 'transfer-account': 'Assets:Utilities:Electricity'}]}`

func render(entries []ast.Directive) string {
	var b strings.Builder
	for _, entry := range entries {
		txn, ok := entry.(*ast.Transaction)
		if !ok {
			fmt.Fprintf(&b, "%s %s\n", ast.DateOf(entry), entry.Kind())
			continue
		}
		fmt.Fprintf(&b, "%s %q %q\n", txn.Date, txn.Payee, txn.Narration)
		for _, p := range txn.Postings {
			fmt.Fprintf(&b, "  %s %s\n", p.Account, p.Amount)
		}
	}
	return b.String()
}

func TestUtilityBill(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name: "two months",
			source: `2022-02-26 * "V-V" "Invoice 1"
  utility-type: "electricity"
  period-start: 2022-01-04
  period-end:   2022-02-22
  Assets:Bank                      -7,865 HUF
  Expenses:Utilities:Electricity    7,865 HUF
`,
			want: `2022-02-26 "V-V" "Invoice 1"
  Assets:Bank -7865 HUF
  Assets:Utilities:Electricity 7865 HUF
2022-01-31 "V-V" "Invoice 1"
  Assets:Utilities:Electricity -4334 HUF
  Expenses:Utilities:Electricity 4334 HUF
2022-02-22 "V-V" "Invoice 1"
  Assets:Utilities:Electricity -3531 HUF
  Expenses:Utilities:Electricity 3531 HUF
`,
		},
		{
			name: "three months",
			source: `2022-04-25 * "V-V" "Invoice 2"
  utility-type: "electricity"
  period-start: 2022-02-23
  period-end:   2022-04-25
  Assets:Bank                      -9,431 HUF
  Expenses:Utilities:Electricity    9,431 HUF
`,
			want: `2022-04-25 "V-V" "Invoice 2"
  Assets:Bank -9431 HUF
  Assets:Utilities:Electricity 9431 HUF
2022-02-28 "V-V" "Invoice 2"
  Assets:Utilities:Electricity -773 HUF
  Expenses:Utilities:Electricity 773 HUF
2022-03-31 "V-V" "Invoice 2"
  Assets:Utilities:Electricity -4793 HUF
  Expenses:Utilities:Electricity 4793 HUF
2022-04-25 "V-V" "Invoice 2"
  Assets:Utilities:Electricity -3865 HUF
  Expenses:Utilities:Electricity 3865 HUF
`,
		},
		{
			name: "single month",
			source: `2022-03-28 * "V-V" "Invoice 3"
  utility-type: "electricity"
  period-start: 2022-03-05
  period-end:   2022-03-25
  Assets:Bank                      -10,000 HUF
  Expenses:Utilities:Electricity    10,000 HUF
`,
			want: `2022-03-28 "V-V" "Invoice 3"
  Assets:Bank -10000 HUF
  Assets:Utilities:Electricity 10000 HUF
2022-03-25 "V-V" "Invoice 3"
  Assets:Utilities:Electricity -10000 HUF
  Expenses:Utilities:Electricity 10000 HUF
`,
		},
		{
			name: "not a bill",
			source: `2022-02-26 * "V-V" "Invoice 1"
  Assets:Bank                      -7,865 HUF
  Expenses:Utilities:Electricity    7,865 HUF

2022-02-27 close Assets:Bank
`,
			want: `2022-02-26 "V-V" "Invoice 1"
  Assets:Bank -7865 HUF
  Expenses:Utilities:Electricity 7865 HUF
2022-02-27 close
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			out, soft, err := Plugin{}.Apply(ctx, parser.MustParseString(ctx, tt.source).Directives, config)
			assert.NoError(t, err)
			assert.Equal(t, 0, len(soft))
			assert.Equal(t, tt.want, render(out))
		})
	}
}

func TestUtilityBillMetadata(t *testing.T) {
	ctx := context.Background()
	tree := parser.MustParseString(ctx, `2022-02-26 * "V-V" "Invoice 1" #home
  utility-type: "electricity"
  period-start: 2022-01-04
  period-end:   2022-02-22
  usage-kwh:    213
  Assets:Bank                      -7,865 HUF
  Expenses:Utilities:Electricity    7,865 HUF
    meter: "A"
`)

	out, _, err := Plugin{}.Apply(ctx, tree.Directives, config)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(out))

	parent := out[0].(*ast.Transaction)
	assert.Equal(t, 1, len(parent.Metadata))
	assert.Equal(t, "usage-kwh", parent.Metadata[0].Key)
	assert.True(t, ast.Has(parent.Postings[1].Metadata, "meter"))

	child := out[1].(*ast.Transaction)
	assert.Equal(t, 0, len(child.Metadata))
	assert.Equal(t, []ast.Tag{"home"}, child.Tags)
	assert.Equal(t, "*", child.Flag)

	original := tree.Directives[0].(*ast.Transaction)
	assert.Equal(t, 4, len(original.Metadata))
	assert.Equal(t, ast.Account("Expenses:Utilities:Electricity"), original.Postings[1].Account)
}

func TestUtilityBillErrors(t *testing.T) {
	tests := []struct {
		name string
		meta string
		err  string
	}{
		{
			name: "unknown type",
			meta: "utility-type: \"gas\"\n  period-start: 2022-01-04\n  period-end: 2022-02-22",
			err:  `2022-02-26: unknown utility type "gas"`,
		},
		{
			name: "missing period",
			meta: "utility-type: \"electricity\"\n  period-end: 2022-02-22",
			err:  `2022-02-26: period-start must be a date`,
		},
		{
			name: "empty period",
			meta: "utility-type: \"electricity\"\n  period-start: 2022-02-22\n  period-end: 2022-02-22",
			err:  `2022-02-26: period 2022-02-22 to 2022-02-22 is empty`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tree := parser.MustParseString(ctx, `2022-02-26 * "V-V" "Invoice 1"
  `+tt.meta+`
  Assets:Bank                      -7,865 HUF
  Expenses:Utilities:Electricity    7,865 HUF
`)

			out, soft, err := Plugin{}.Apply(ctx, tree.Directives, config)
			assert.NoError(t, err)
			assert.Equal(t, 1, len(out))
			assert.True(t, out[0] == tree.Directives[0])
			assert.Equal(t, 1, len(soft))
			assert.EqualError(t, soft[0], tt.err)
		})
	}

	t.Run("no shared posting", func(t *testing.T) {
		ctx := context.Background()
		tree := parser.MustParseString(ctx, `2022-02-26 * "V-V" "Invoice 1"
  utility-type: "electricity"
  period-start: 2022-01-04
  period-end:   2022-02-22
  Assets:Bank            -7,865 HUF
  Expenses:Utilities      7,865 HUF
`)

		_, soft, err := Plugin{}.Apply(ctx, tree.Directives, config)
		assert.NoError(t, err)
		assert.EqualError(t, soft[0], "2022-02-26: no amount booked on Expenses:Utilities:Electricity")
	})
}

func TestUtilityBillConfigErrors(t *testing.T) {
	tests := []struct {
		config string
		err    string
	}{
		{`{'utilities': [{'shared-account': 'Expenses:Gas', 'transfer-account': 'Assets:Gas'}]}`, `utility 1: missing field "type"`},
		{`{'utilities': [{'type': 'gas', 'shared-account': 'Gas', 'transfer-account': 'Assets:Gas'}]}`, `utility gas: field "shared-account": account must have at least two segments: Gas`},
		{`{'utilities': [{'type': 'gas', 'shared-account': 'Expenses:Gas'}]}`, `utility gas: field "transfer-account": account must have at least two segments: `},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			_, _, err := Plugin{}.Apply(context.Background(), nil, tt.config)
			assert.EqualError(t, err, tt.err)
		})
	}
}

func TestMonths(t *testing.T) {
	date := func(s string) time.Time {
		return ast.MustNewDate(s).Time
	}

	var got []string
	for _, m := range months(date("2021-12-15"), date("2022-02-10")) {
		got = append(got, fmt.Sprintf("%s %d", m.date.Format("2006-01-02"), m.days))
	}
	assert.Equal(t, []string{"2021-12-31 16", "2022-01-31 31", "2022-02-10 10"}, got)
}
