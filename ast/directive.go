package ast

// Commodity declares a commodity or currency that can be used in the ledger.
//
// Example:
//
//	2014-01-01 commodity HUF
//	  name: "Hungarian Forint"
type Commodity struct {
	Pos      Position
	Date     *Date
	Currency string

	withMetadata
}

var _ Directive = &Commodity{}

func (c *Commodity) Position() Position { return c.Pos }
func (c *Commodity) date() *Date        { return c.Date }
func (c *Commodity) Kind() string       { return "commodity" }

// Open declares the opening of an account at a specific date, marking the beginning
// of its lifetime in the ledger. You can optionally constrain which currencies the
// account may hold and specify a booking method for lot tracking.
//
// Plugins that rename accounts rewrite Open directives so every account they introduce
// is declared at the date of the account it was derived from.
//
// Example:
//
//	2010-08-31 open Expenses:Hygiene:BarSoap
//	2014-05-01 open Assets:Investments:Brokerage USD,EUR "FIFO"
type Open struct {
	Pos                  Position
	Date                 *Date
	Account              Account
	ConstraintCurrencies []string
	BookingMethod        string

	withMetadata
}

var _ Directive = &Open{}

func (o *Open) Position() Position { return o.Pos }
func (o *Open) date() *Date        { return o.Date }
func (o *Open) Kind() string       { return "open" }

// Close declares the closing of an account at a specific date.
//
// Example:
//
//	2015-09-23 close Assets:US:BofA:Checking
type Close struct {
	Pos     Position
	Date    *Date
	Account Account

	withMetadata
}

var _ Directive = &Close{}

func (c *Close) Position() Position { return c.Pos }
func (c *Close) date() *Date        { return c.Date }
func (c *Close) Kind() string       { return "close" }

// Balance asserts that an account should have a specific balance at the beginning
// of a given date.
//
// Example:
//
//	2014-08-09 balance Assets:Bank:Checking 562.00 USD
type Balance struct {
	Pos     Position
	Date    *Date
	Account Account
	Amount  *Amount

	withMetadata
}

var _ Directive = &Balance{}

func (b *Balance) Position() Position { return b.Pos }
func (b *Balance) date() *Date        { return b.Date }
func (b *Balance) Kind() string       { return "balance" }

// Pad inserts a transaction that brings Account to the amount asserted by the next
// balance, taking the difference from AccountPad.
//
// Example:
//
//	2014-01-01 pad Assets:Bank:Checking Equity:Opening-Balances
type Pad struct {
	Pos        Position
	Date       *Date
	Account    Account
	AccountPad Account

	withMetadata
}

var _ Directive = &Pad{}

func (p *Pad) Position() Position { return p.Pos }
func (p *Pad) date() *Date        { return p.Date }
func (p *Pad) Kind() string       { return "pad" }

// Note attaches a dated comment to an account.
//
// Example:
//
//	2014-07-09 note Assets:Bank:Checking "Called bank about pending deposit"
type Note struct {
	Pos         Position
	Date        *Date
	Account     Account
	Description string

	withMetadata
}

var _ Directive = &Note{}

func (n *Note) Position() Position { return n.Pos }
func (n *Note) date() *Date        { return n.Date }
func (n *Note) Kind() string       { return "note" }

// Price records the price of a commodity in another currency at a date.
//
// Example:
//
//	2014-07-09 price USD 221.5 HUF
type Price struct {
	Pos       Position
	Date      *Date
	Commodity string
	Amount    *Amount

	withMetadata
}

var _ Directive = &Price{}

func (p *Price) Position() Position { return p.Pos }
func (p *Price) date() *Date        { return p.Date }
func (p *Price) Kind() string       { return "price" }
