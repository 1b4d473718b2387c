// Large Ledger Generator
//
// This tool generates a large beancount file for profiling the plugins. Every plugin is
// declared in the header and the transactions carry the metadata that triggers them, so
// `beancount-plugins apply --telemetry` shows where the time goes.
//
// Usage:
//
//	go run ./tools/generate_large_file > large.beancount
//	go run ./tools/generate_large_file --size 20000000 --seed 7 > large.beancount
package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB

	checkingAccount = "Assets:Bank:Checking"
	cardAccount     = "Liabilities:CreditCard:Visa"
)

var (
	accounts = []string{
		checkingAccount,
		"Assets:Bank:Savings",
		"Assets:Transfer",
		"Assets:Utilities:Electricity",
		cardAccount,
		"Income:Salary",
		"Expenses:Food:Groceries",
		"Expenses:Food:Restaurant",
		"Expenses:Housing:Rent",
		"Expenses:Utilities:Electricity",
		"Expenses:Transport:Gas",
		"Expenses:Shopping:Clothing",
		"Expenses:Shopping:Electronics",
		"Expenses:Entertainment:Movies",
		"Expenses:Entertainment:Concerts",
		"Equity:Opening-Balances",
	}

	spending = []string{
		"Expenses:Food:Restaurant",
		"Expenses:Transport:Gas",
		"Expenses:Shopping:Clothing",
		"Expenses:Shopping:Electronics",
		"Expenses:Entertainment:Movies",
		"Expenses:Entertainment:Concerts",
	}

	payees = []string{
		"Whole Foods", "Safeway", "Trader Joe's", "Costco",
		"Shell Gas", "Chevron", "Uber", "Amazon",
		"Target", "Best Buy", "Netflix", "AMC Theaters",
	}

	plugins = []string{
		`plugin "utility_bill" "{'utilities': [{'type': 'electricity', 'shared-account': 'Expenses:Utilities:Electricity', 'transfer-account': 'Assets:Utilities:Electricity'}]}"`,
		`plugin "entry_manipulation" "{'manipulators': [
  {'type': 'transaction-splitter', 'metadata-name-date': 'transaction-date', 'transfer-account': 'Assets:Transfer', 'dated-posting-move-mode': 'stay'},
  {'type': 'posting-consolidator-original-price', 'metadata-name-original-price': 'original-price'},
  {'type': 'posting-splitter', 'metadata-name-type': 'split-mode', 'roundings': {'USD': 2}}
]}"`,
		`plugin "account_replacer" "{'replace-rules': [{'replace-from': '^Expenses:Food:Groceries', 'replace-to': 'Expenses:Groceries'}]}"`,
		`plugin "balance_pad_creator" "{'account': 'Assets:Bank:Checking', 'metadata-name-balance-unit': 'balance', 'pad-account': 'Equity:Opening-Balances'}"`,
	}
)

var flags struct {
	Size int   `help:"Target size of the ledger in bytes." default:"10485760"`
	Seed int64 `help:"Seed of the random generator (0 picks one from the clock)." default:"0"`
}

func main() {
	kong.Parse(&flags,
		kong.Name("generate_large_file"),
		kong.Description("Generate a large beancount file that exercises every plugin."),
	)

	seed := flags.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := bufio.NewWriter(os.Stdout)
	stats := newGenerator(rand.New(rand.NewSource(seed))).generate(w, flags.Size)
	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d transactions (seed %d)\n", stats.bytes, stats.transactions, seed)
}

type stats struct {
	bytes        int
	transactions int
}

// generator writes a ledger while tracking the checking balance, so the balance
// metadata it emits is mostly right and occasionally off to provoke pads.
type generator struct {
	rng      *rand.Rand
	checking decimal.Decimal
}

func newGenerator(rng *rand.Rand) *generator {
	return &generator{rng: rng, checking: decimal.Zero}
}

func (g *generator) generate(w io.Writer, targetSize int) stats {
	var s stats
	write := func(output string, transaction bool) {
		n, _ := io.WriteString(w, output)
		s.bytes += n
		if transaction {
			s.transactions++
		}
	}

	write(g.header(), false)

	currentDate := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	lastBill := currentDate

	for s.bytes < targetSize {
		switch g.rng.Intn(10) {
		case 0, 1, 2: // 30% - Card purchase booked a few days after it happened
			write(g.cardPurchase(currentDate), true)

		case 3, 4: // 20% - Groceries with an original price
			write(g.groceries(currentDate), true)

		case 5: // 10% - Bill split equally over expense accounts
			write(g.equalSplit(currentDate), true)

		case 6, 7: // 20% - Checking transaction carrying the bank balance
			write(g.checkingTransaction(currentDate), true)

		case 8: // 10% - Salary
			write(g.salary(currentDate), true)

		case 9: // 10% - Electricity bill covering the time since the last one
			if currentDate.Sub(lastBill) < 30*24*time.Hour {
				continue
			}
			write(g.utilityBill(lastBill, currentDate), true)
			lastBill = currentDate.AddDate(0, 0, 1)
		}

		// Advance date by 1-3 days
		currentDate = currentDate.AddDate(0, 0, g.rng.Intn(3)+1)
	}

	return s
}

func (g *generator) header() string {
	out := "; Large Beancount File for Plugin Profiling\n\n"
	out += "option \"title\" \"Plugin Profiling Ledger\"\n"
	out += "option \"operating_currency\" \"USD\"\n\n"

	for _, p := range plugins {
		out += p + "\n"
	}
	out += "\n"

	for _, account := range accounts {
		out += fmt.Sprintf("2020-01-01 open %s\n", account)
	}
	return out + "\n"
}

func (g *generator) cardPurchase(date time.Time) string {
	amount := g.randAmount(5, 300)
	happened := date.AddDate(0, 0, -(g.rng.Intn(3) + 1))

	return fmt.Sprintf(`%s * "%s" "Card purchase"
  %s  %s USD
    transaction-date: %s
  %s  %s USD

`, day(date), g.pick(payees), cardAccount, amount.Neg(), day(happened), g.pick(spending), amount)
}

func (g *generator) groceries(date time.Time) string {
	paid := g.randAmount(10, 200)
	original := paid.Add(g.randAmount(1, 20))

	return fmt.Sprintf(`%s * "%s" "Groceries"
  %s  %s USD
  Expenses:Food:Groceries  %s USD
    original-price: %s USD

`, day(date), g.pick(payees), cardAccount, paid.Neg(), paid, original)
}

func (g *generator) equalSplit(date time.Time) string {
	amount := g.randAmount(20, 400)
	first := g.pick(spending)
	second := g.pick(spending)
	for second == first {
		second = g.pick(spending)
	}

	return fmt.Sprintf(`%s * "Shared bill"
  %s  %s USD
    split-mode: "equal"
  %s  0 USD
  %s  0 USD

`, day(date), cardAccount, amount.Neg(), first, second)
}

func (g *generator) checkingTransaction(date time.Time) string {
	amount := g.randAmount(10, 500)
	g.checking = g.checking.Sub(amount)

	balance := g.checking
	if g.rng.Intn(20) == 0 {
		balance = balance.Add(g.randAmount(1, 50))
		g.checking = balance
	}

	return fmt.Sprintf(`%s * "%s" "Transfer"
  %s  %s USD
    balance: %s USD
  %s  %s USD

`, day(date), g.pick(payees), checkingAccount, amount.Neg(), balance.StringFixed(2), g.pick(spending), amount)
}

func (g *generator) salary(date time.Time) string {
	amount := g.randAmount(2000, 5000)
	g.checking = g.checking.Add(amount)

	return fmt.Sprintf(`%s * "Employer Inc" "Salary"
  %s  %s USD
    balance: %s USD
  Income:Salary  %s USD

`, day(date), checkingAccount, amount, g.checking.StringFixed(2), amount.Neg())
}

func (g *generator) utilityBill(start, end time.Time) string {
	amount := g.randAmount(40, 250)
	g.checking = g.checking.Sub(amount)

	return fmt.Sprintf(`%s * "Power Co" "Electricity"
  utility-type: "electricity"
  period-start: %s
  period-end: %s
  %s  %s USD
  Expenses:Utilities:Electricity  %s USD

`, day(end), day(start), day(end.AddDate(0, 0, -1)), checkingAccount, amount.Neg(), amount)
}

// Helper functions

func (g *generator) randAmount(min, max int64) decimal.Decimal {
	cents := min*100 + g.rng.Int63n((max-min)*100)
	return decimal.New(cents, -2)
}

func (g *generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}
