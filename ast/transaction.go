package ast

// Transaction records a financial transaction with a date, flag, optional payee,
// narration, and a list of postings. The flag indicates transaction status: '*' for
// cleared transactions, '!' for pending ones, or 'P' for generated padding.
//
// Example:
//
//	2016-05-31 * "Grocery" "Weekly shopping" #food
//	  split-mode: "discount"
//	  discount-1: 300 HUF
//	  Assets:Bank          -1,170 HUF
//	  Expenses:Bread          620 HUF
//	    discount-ids: "1"
type Transaction struct {
	Pos       Position
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Links     []Link
	Tags      []Tag

	withMetadata

	Postings []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) date() *Date        { return t.Date }
func (t *Transaction) Kind() string       { return "transaction" }

// Clone returns a copy of the transaction with its own posting, tag, link and metadata
// slices. Postings themselves are shared; replace them rather than mutating them.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Postings = append([]*Posting(nil), t.Postings...)
	c.Tags = append([]Tag(nil), t.Tags...)
	c.Links = append([]Link(nil), t.Links...)
	c.Metadata = append([]*Metadata(nil), t.Metadata...)
	return &c
}

// Posting represents a single leg of a transaction, specifying an account and optional
// amount, cost, and price.
//
// Example postings within transactions:
//
//	Expenses:Hygiene:BarSoap   24 PCS_DOVE_BAR_SOAP {424.75 HUF}  ; Purchase with cost
//	Assets:Cash               200 EUR @ 1.35 USD                  ; Conversion with price
//	Expenses:Games              0 USD                             ; Zero, filled by a splitter
//	Assets:Checking                                               ; Inferred amount
type Posting struct {
	Pos        Position
	Flag       string
	Account    Account
	Amount     *Amount
	Cost       *Cost
	PriceTotal bool
	Price      *Amount

	withMetadata
}

// Clone returns a copy of the posting with its own metadata slice.
func (p *Posting) Clone() *Posting {
	c := *p
	c.Metadata = append([]*Metadata(nil), p.Metadata...)
	return &c
}

// Currency returns the currency of the posting's units, or "" when the amount is elided.
func (p *Posting) Currency() string {
	if p.Amount == nil {
		return ""
	}
	return p.Amount.Currency
}
