package balancepad

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
)

func render(entries []ast.Directive) string {
	var b strings.Builder
	for _, entry := range entries {
		switch e := entry.(type) {
		case *ast.Transaction:
			fmt.Fprintf(&b, "%s %q\n", e.Date, e.Narration)
			for _, p := range e.Postings {
				b.WriteString("  " + string(p.Account))
				for _, m := range p.Metadata {
					b.WriteString(" " + m.Key)
				}
				b.WriteString("\n")
			}
		case *ast.Balance:
			fmt.Fprintf(&b, "%s balance %s %s", e.Date, e.Account, e.Amount)
			if time, ok := ast.LookupText(e.Metadata, BalanceTimeKey); ok {
				b.WriteString(" at " + time)
			}
			b.WriteString("\n")
		case *ast.Pad:
			fmt.Fprintf(&b, "%s pad %s %s\n", e.Date, e.Account, e.AccountPad)
		default:
			fmt.Fprintf(&b, "%s %s\n", ast.DateOf(e), e.Kind())
		}
	}
	return b.String()
}

func apply(t *testing.T, config, source string) []ast.Directive {
	t.Helper()

	ctx := context.Background()
	out, soft, err := Plugin{}.Apply(ctx, parser.MustParseString(ctx, source).Directives, config)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(soft))
	return out
}

const config = `{'account': 'Assets:Bank', 'metadata-name-balance-unit': 'balance', 'metadata-name-balance-time': 'time'}`

func TestCreateBalances(t *testing.T) {
	out := apply(t, config, `2013-01-01 open Assets:Bank

2013-05-31 * "Salary"
  Assets:Bank        1000 USD
    balance: 1200 USD
    time: "10:24"
    bank-ref: "A-1"
  Income:Salary     -1000 USD

2013-05-31 * "Coffee"
  Assets:Bank          -3 USD
    balance: 1197 USD
    time: "16:02"
  Expenses:Coffee       3 USD

2013-06-01 * "Lunch"
  Assets:Bank         -10 USD
    balance: 1187 USD
  Expenses:Food        10 USD

2013-06-02 balance Assets:Bank  1190 USD
  balance-time: "09:00"

2013-06-02 balance Assets:Cash  20 USD
`)

	assert.Equal(t, `2013-01-01 open
2013-05-31 "Salary"
  Assets:Bank bank-ref
  Income:Salary
2013-05-31 "Coffee"
  Assets:Bank
  Expenses:Coffee
2013-06-01 balance Assets:Bank 1197 USD at 16:02
2013-06-01 "Lunch"
  Assets:Bank
  Expenses:Food
2013-06-02 balance Assets:Cash 20 USD
2013-06-02 balance Assets:Bank 1190 USD at 09:00
`, render(out))
}

func TestBalanceDeduplication(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		want   string
	}{
		{"later time wins", `"10:00"`, `"09:00"`, "1 USD at 10:00"},
		{"tie keeps the later entry", `"10:00"`, `"10:00"`, "2 USD at 10:00"},
		{"time beats no time", `"08:00"`, "", "1 USD at 08:00"},
		{"later entry wins without times", "", "", "2 USD"},
	}

	meta := func(time string) string {
		if time == "" {
			return ""
		}
		return "\n    time: " + time
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := `2013-05-31 * "First"
  Assets:Bank         1 USD
    balance: 1 USD` + meta(tt.first) + `
  Income:Salary      -1 USD

2013-05-31 * "Second"
  Assets:Bank         1 USD
    balance: 2 USD` + meta(tt.second) + `
  Income:Salary      -1 USD
`
			out := apply(t, config, source)

			var balances []string
			for _, line := range strings.Split(render(out), "\n") {
				if strings.Contains(line, " balance ") {
					balances = append(balances, line)
				}
			}
			assert.Equal(t, []string{"2013-06-01 balance Assets:Bank " + tt.want}, balances)
		})
	}
}

func TestCreatePads(t *testing.T) {
	out := apply(t, `{'account': 'Assets:Bank', 'metadata-name-balance-unit': 'balance', 'pad-account': 'Equity:Opening-Balances'}`, `2013-01-01 open Assets:Bank

2013-05-31 * "Salary"
  Assets:Bank        1000 USD
    balance: 1200 USD
  Income:Salary     -1000 USD

2013-06-10 * "Rent"
  Assets:Bank        -500 USD
    balance: 700 USD
  Expenses:Rent       500 USD

2013-06-20 balance Assets:Bank  650.00 USD
`)

	assert.Equal(t, `2013-01-01 open
2013-05-31 "Salary"
  Assets:Bank
  Income:Salary
2013-05-31 pad Assets:Bank Equity:Opening-Balances
2013-06-01 balance Assets:Bank 1200 USD
2013-06-10 "Rent"
  Assets:Bank
  Expenses:Rent
2013-06-11 balance Assets:Bank 700 USD
2013-06-19 pad Assets:Bank Equity:Opening-Balances
2013-06-20 balance Assets:Bank 650.00 USD
`, render(out))
}

func TestCreateReportsInvalidBalance(t *testing.T) {
	ctx := context.Background()
	tree := parser.MustParseString(ctx, `2013-05-31 * "Salary"
  Assets:Bank        1000 USD
    balance: "1200 USD"
  Income:Salary     -1000 USD
`)

	out, soft, err := Plugin{}.Apply(ctx, tree.Directives, config)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))
	assert.True(t, out[0] == tree.Directives[0])
	assert.Equal(t, 1, len(soft))
	assert.EqualError(t, soft[0], "2013-05-31: balance of posting Assets:Bank must be an amount, got string")
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		config string
		err    string
	}{
		{`{'metadata-name-balance-unit': 'balance'}`, `missing field "account"`},
		{`{'account': 'Bank', 'metadata-name-balance-unit': 'balance'}`, `field "account": account must have at least two segments: Bank`},
		{`{'account': 'Assets:Bank'}`, `missing field "metadata-name-balance-unit"`},
		{`{'account': 'Assets:Bank', 'metadata-name-balance-unit': 'balance', 'pad-account': 'Opening'}`, `field "pad-account": account must have at least two segments: Opening`},
	}

	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			_, _, err := Plugin{}.Apply(context.Background(), nil, tt.config)
			assert.EqualError(t, err, tt.err)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, soft, err := Plugin{}.Apply(context.Background(), nil, `{'account': `)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(soft))
	})
}
