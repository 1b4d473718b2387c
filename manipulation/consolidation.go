package manipulation

import (
	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// ConsolidationData asks for OriginalAccount to be replaced by ToAccount everywhere, and
// for AdditionalAccounts to be opened next to it.
type ConsolidationData struct {
	OriginalAccount    ast.Account
	ToAccount          ast.Account
	AdditionalAccounts []ast.Account
}

// AddAdditional appends accounts that are not listed yet.
func (d *ConsolidationData) AddAdditional(accounts ...ast.Account) {
	for _, account := range accounts {
		if !d.hasAdditional(account) {
			d.AdditionalAccounts = append(d.AdditionalAccounts, account)
		}
	}
}

func (d *ConsolidationData) hasAdditional(account ast.Account) bool {
	for _, a := range d.AdditionalAccounts {
		if a == account {
			return true
		}
	}
	return false
}

// ConsolidationRegistry holds one ConsolidationData per original account, in the order
// they were first requested.
type ConsolidationRegistry struct {
	records map[ast.Account]*ConsolidationData
	order   []ast.Account
}

// NewConsolidationRegistry creates an empty registry.
func NewConsolidationRegistry() *ConsolidationRegistry {
	return &ConsolidationRegistry{records: make(map[ast.Account]*ConsolidationData)}
}

// Request returns the record of from, creating it with target to on first use. The
// first target wins; later requests with another target get the existing record.
func (r *ConsolidationRegistry) Request(from, to ast.Account) *ConsolidationData {
	if d, ok := r.records[from]; ok {
		return d
	}

	d := &ConsolidationData{OriginalAccount: from, ToAccount: to}
	r.records[from] = d
	r.order = append(r.order, from)
	return d
}

// AddAdditional records extra accounts for from. It does nothing unless from was
// requested before.
func (r *ConsolidationRegistry) AddAdditional(from ast.Account, accounts ...ast.Account) {
	if d, ok := r.records[from]; ok {
		d.AddAdditional(accounts...)
	}
}

// Merge folds records produced elsewhere into the registry, matching them by original
// account.
func (r *ConsolidationRegistry) Merge(data ...*ConsolidationData) {
	for _, d := range data {
		r.Request(d.OriginalAccount, d.ToAccount).AddAdditional(d.AdditionalAccounts...)
	}
}

// Lookup returns the record of account, if it is consolidated.
func (r *ConsolidationRegistry) Lookup(account ast.Account) (*ConsolidationData, bool) {
	d, ok := r.records[account]
	return d, ok
}

// Records returns every record in first-request order.
func (r *ConsolidationRegistry) Records() []*ConsolidationData {
	records := make([]*ConsolidationData, 0, len(r.order))
	for _, account := range r.order {
		records = append(records, r.records[account])
	}
	return records
}

// Len returns the number of consolidated accounts.
func (r *ConsolidationRegistry) Len() int {
	return len(r.order)
}
