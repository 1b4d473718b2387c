// Package ledger keeps running balances of accounts.
//
// It is deliberately small: plugins that need to know what an account holds at some point
// in the ledger (for example to decide whether a balance assertion needs a pad) walk the
// entries in date order and feed the postings into an Inventory.
package ledger
