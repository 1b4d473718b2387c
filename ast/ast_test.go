package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSortStable(t *testing.T) {
	d1 := MustNewDate("2024-01-01")
	d2 := MustNewDate("2024-01-02")

	txn := NewTransaction(d1, "first")
	closing := NewClose(d1, "Assets:Checking")
	open := NewOpen(d1, "Assets:Checking", nil, "")
	balance := NewBalance(d1, "Assets:Checking", NewAmount("0", "USD"))
	later := NewTransaction(d2, "later")
	sameDay := NewTransaction(d1, "second")

	directives := Directives{later, closing, txn, balance, open, sameDay}
	directives.SortStable()

	assert.Equal(t, Directives{open, balance, txn, sameDay, closing, later}, directives)
}

func TestDateOf(t *testing.T) {
	date := MustNewDate("2013-05-31")
	assert.Equal(t, date, DateOf(NewPad(date, "Assets:Cash", "Equity:Opening-Balances")))
}

func TestTransactionClone(t *testing.T) {
	txn := NewTransaction(MustNewDate("2024-01-01"), "Purchase",
		WithTags("food"),
		WithTransactionMetadata(NewMetadata("split-mode", "discount")),
		WithPostings(
			NewPosting("Assets:Bank", WithAmount("-10", "USD")),
			NewPosting("Expenses:Bread", WithAmount("10", "USD")),
		),
	)

	clone := txn.Clone()
	clone.Postings[0] = NewPosting("Assets:Cash", WithAmount("-10", "USD"))
	clone.Metadata = Without(clone.Metadata, "split-mode")
	clone.Tags[0] = "other"

	assert.Equal(t, Account("Assets:Bank"), txn.Postings[0].Account)
	assert.True(t, Has(txn.Metadata, "split-mode"))
	assert.Equal(t, Tag("food"), txn.Tags[0])
}
