package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// Inventory holds the units of each currency an account owns.
type Inventory struct {
	units map[string]decimal.Decimal
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		units: make(map[string]decimal.Decimal),
	}
}

// Add adds number units of currency. A currency whose units drop to zero is removed.
func (inv *Inventory) Add(currency string, number decimal.Decimal) {
	total := inv.units[currency].Add(number)
	if total.IsZero() {
		delete(inv.units, currency)
		return
	}
	inv.units[currency] = total
}

// AddPosting adds the units of p. Postings with an elided amount are ignored.
func (inv *Inventory) AddPosting(p *ast.Posting) {
	if p.Amount == nil {
		return
	}
	inv.Add(p.Amount.Currency, p.Amount.Number)
}

// Set replaces the units of currency, as a pad does.
func (inv *Inventory) Set(currency string, number decimal.Decimal) {
	delete(inv.units, currency)
	inv.Add(currency, number)
}

// Get returns the units of currency held.
func (inv *Inventory) Get(currency string) decimal.Decimal {
	return inv.units[currency]
}

// IsEmpty reports whether the inventory holds nothing.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.units) == 0
}

// Currencies returns the currencies held, sorted.
func (inv *Inventory) Currencies() []string {
	currencies := maps.Keys(inv.units)
	slices.Sort(currencies)
	return currencies
}

// String returns the inventory as "{10 USD, 5.5 EUR}", ordered by currency.
func (inv *Inventory) String() string {
	parts := make([]string, 0, len(inv.units))
	for _, currency := range inv.Currencies() {
		parts = append(parts, inv.units[currency].String()+" "+currency)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Balances tracks an inventory per account.
type Balances struct {
	accounts map[ast.Account]*Inventory
}

func NewBalances() *Balances {
	return &Balances{accounts: make(map[ast.Account]*Inventory)}
}

// Inventory returns the inventory of account, creating it on first use.
func (b *Balances) Inventory(account ast.Account) *Inventory {
	inv, ok := b.accounts[account]
	if !ok {
		inv = NewInventory()
		b.accounts[account] = inv
	}
	return inv
}

// Book adds every posting of txn to the inventory of its account.
func (b *Balances) Book(txn *ast.Transaction) {
	for _, p := range txn.Postings {
		b.Inventory(p.Account).AddPosting(p)
	}
}
