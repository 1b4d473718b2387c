package ast

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewTransaction(t *testing.T) {
	date := MustNewDate("2013-06-03")
	txn := NewTransaction(date, "Purchase",
		WithFlag("!"),
		WithPayee("Tesco"),
		WithTags("#groceries"),
		WithLinks("^receipt-1"),
		WithPostings(
			NewPosting("Assets:Bank:Checking", WithAmount("-8154", "HUF")),
			NewPosting("Expenses:Hygiene:BarSoap",
				WithAmount("24", "PCS_DOVE_BAR_SOAP"),
				WithCost(NewCost(NewAmount("424.75", "HUF"))),
				WithPostingFlag("*"),
				WithPostingMetadata(NewMetadata("discount-account", "Tesco:Clubcard")),
			),
		),
	)

	assert.Equal(t, "!", txn.Flag)
	assert.Equal(t, "Tesco", txn.Payee)
	assert.Equal(t, []Tag{"groceries"}, txn.Tags)
	assert.Equal(t, []Link{"receipt-1"}, txn.Links)
	assert.Equal(t, 2, len(txn.Postings))

	soap := txn.Postings[1]
	assert.Equal(t, "424.75 HUF", soap.Cost.Amount.String())
	assert.Equal(t, "*", soap.Flag)
	assert.Equal(t, "PCS_DOVE_BAR_SOAP", soap.Currency())
	assert.True(t, Has(soap.Metadata, "discount-account"))
}

func TestNewDateFromTimeTruncates(t *testing.T) {
	date := MustNewDate("2024-03-05")
	assert.Equal(t, date.String(), NewDateFromTime(date.Time.Add(13*3600e9)).String())
}
