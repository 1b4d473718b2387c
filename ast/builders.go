package ast

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NewAmount creates a new Amount from a decimal string and a currency.
// It panics when value is not a valid decimal, so it is meant for literals.
//
// Example:
//
//	amount := ast.NewAmount("-140.91", "HUF")
func NewAmount(value, currency string) *Amount {
	return &Amount{
		Number:   decimal.RequireFromString(value),
		Currency: currency,
	}
}

// NewAmountFromDecimal creates a new Amount from an already computed number.
func NewAmountFromDecimal(number decimal.Decimal, currency string) *Amount {
	return &Amount{
		Number:   number,
		Currency: currency,
	}
}

// NewDate parses a date string in YYYY-MM-DD format and returns a Date.
//
// Example:
//
//	date, err := ast.NewDate("2013-05-31")
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewDate(s string) (*Date, error) {
	d := &Date{}
	if err := d.Capture([]string{s}); err != nil {
		return nil, err
	}
	return d, nil
}

// MustNewDate is like NewDate but panics on an invalid date.
func MustNewDate(s string) *Date {
	d, err := NewDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDateFromTime creates a Date from a time.Time value.
func NewDateFromTime(t time.Time) *Date {
	return &Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewAccount creates an Account from the given name string and validates it.
//
// Example:
//
//	account, err := ast.NewAccount("Liabilities:Bank:DebitCard")
func NewAccount(name string) (Account, error) {
	var account Account
	if err := account.Capture([]string{name}); err != nil {
		return "", err
	}
	return account, nil
}

// NewLink creates a Link from the given name, stripping a leading ^.
func NewLink(name string) Link {
	return Link(strings.TrimPrefix(name, "^"))
}

// NewTag creates a Tag from the given name, stripping a leading #.
func NewTag(name string) Tag {
	return Tag(strings.TrimPrefix(name, "#"))
}

// NewMetadata creates a Metadata key-value pair with a string value.
//
// Example:
//
//	meta := ast.NewMetadata("spread-source-id", "1,2")
func NewMetadata(key, value string) *Metadata {
	return &Metadata{
		Key:   key,
		Value: &MetadataValue{StringValue: &value},
	}
}

// NewAmountMetadata creates a Metadata pair holding an amount.
func NewAmountMetadata(key string, amount *Amount) *Metadata {
	return &Metadata{
		Key:   key,
		Value: &MetadataValue{Amount: amount},
	}
}

// NewDateMetadata creates a Metadata pair holding a date.
func NewDateMetadata(key string, date *Date) *Metadata {
	return &Metadata{
		Key:   key,
		Value: &MetadataValue{Date: date},
	}
}

// TransactionOption is a functional option for configuring a Transaction.
type TransactionOption func(*Transaction)

// NewTransaction creates a new Transaction with the given date and narration.
// Additional fields can be set using functional options.
//
// Example:
//
//	txn := ast.NewTransaction(date, "Purchase",
//	    ast.WithFlag("*"),
//	    ast.WithPayee("Tesco"),
//	    ast.WithPostings(
//	        ast.NewPosting("Assets:Bank:Checking", ast.WithAmount("-65", "USD")),
//	        ast.NewPosting("Expenses:Bread", ast.WithAmount("65", "USD")),
//	    ),
//	)
func NewTransaction(date *Date, narration string, opts ...TransactionOption) *Transaction {
	txn := &Transaction{
		Date:      date,
		Flag:      "*",
		Narration: narration,
	}

	for _, opt := range opts {
		opt(txn)
	}

	return txn
}

// WithFlag sets the transaction flag.
func WithFlag(flag string) TransactionOption {
	return func(t *Transaction) {
		t.Flag = flag
	}
}

// WithPayee sets the transaction payee.
func WithPayee(payee string) TransactionOption {
	return func(t *Transaction) {
		t.Payee = payee
	}
}

// WithTags adds tags to the transaction.
func WithTags(tags ...string) TransactionOption {
	return func(t *Transaction) {
		for _, tag := range tags {
			t.Tags = append(t.Tags, NewTag(tag))
		}
	}
}

// WithLinks adds links to the transaction.
func WithLinks(links ...string) TransactionOption {
	return func(t *Transaction) {
		for _, link := range links {
			t.Links = append(t.Links, NewLink(link))
		}
	}
}

// WithTransactionMetadata adds metadata to the transaction.
func WithTransactionMetadata(metadata ...*Metadata) TransactionOption {
	return func(t *Transaction) {
		t.AddMetadata(metadata...)
	}
}

// WithPostings sets the postings of the transaction.
func WithPostings(postings ...*Posting) TransactionOption {
	return func(t *Transaction) {
		t.Postings = postings
	}
}

// PostingOption is a functional option for configuring a Posting.
type PostingOption func(*Posting)

// NewPosting creates a new Posting for the given account.
func NewPosting(account Account, opts ...PostingOption) *Posting {
	posting := &Posting{
		Account: account,
	}

	for _, opt := range opts {
		opt(posting)
	}

	return posting
}

// WithAmount sets the posting units from a decimal string.
func WithAmount(value, currency string) PostingOption {
	return func(p *Posting) {
		p.Amount = NewAmount(value, currency)
	}
}

// WithUnits sets the posting units.
func WithUnits(amount *Amount) PostingOption {
	return func(p *Posting) {
		p.Amount = amount
	}
}

// WithCost sets the cost specification of the posting.
func WithCost(cost *Cost) PostingOption {
	return func(p *Posting) {
		p.Cost = cost
	}
}

// WithPrice sets the per-unit price of the posting.
func WithPrice(price *Amount) PostingOption {
	return func(p *Posting) {
		p.Price = price
		p.PriceTotal = false
	}
}

// WithPostingFlag sets the posting flag.
func WithPostingFlag(flag string) PostingOption {
	return func(p *Posting) {
		p.Flag = flag
	}
}

// WithPostingMetadata adds metadata to the posting.
func WithPostingMetadata(metadata ...*Metadata) PostingOption {
	return func(p *Posting) {
		p.AddMetadata(metadata...)
	}
}

// NewCost creates a cost specification with a per-unit amount.
func NewCost(amount *Amount) *Cost {
	return &Cost{Amount: amount}
}

// NewCostWithDate creates a cost specification with a per-unit amount and a date.
func NewCostWithDate(amount *Amount, date *Date) *Cost {
	return &Cost{Amount: amount, Date: date}
}

// NewOpen creates an Open directive.
func NewOpen(date *Date, account Account, constraintCurrencies []string, bookingMethod string) *Open {
	return &Open{
		Date:                 date,
		Account:              account,
		ConstraintCurrencies: constraintCurrencies,
		BookingMethod:        bookingMethod,
	}
}

// NewClose creates a Close directive.
func NewClose(date *Date, account Account) *Close {
	return &Close{
		Date:    date,
		Account: account,
	}
}

// NewBalance creates a Balance directive.
func NewBalance(date *Date, account Account, amount *Amount) *Balance {
	return &Balance{
		Date:    date,
		Account: account,
		Amount:  amount,
	}
}

// NewPad creates a Pad directive.
func NewPad(date *Date, account, padAccount Account) *Pad {
	return &Pad{
		Date:       date,
		Account:    account,
		AccountPad: padAccount,
	}
}
