package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount represents a numerical value with its associated currency or commodity symbol.
// Numbers are exact decimals; the exponent of the parsed or computed number is kept so
// that "4.00 USD" prints back as "4.00 USD".
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// Neg returns the amount with its sign flipped.
func (a *Amount) Neg() *Amount {
	return &Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// String formats the amount as "NUMBER CURRENCY".
func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	if a.Currency == "" {
		return FormatNumber(a.Number)
	}
	return FormatNumber(a.Number) + " " + a.Currency
}

// FormatNumber prints a decimal at its own exponent, so trailing zeros survive.
func FormatNumber(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// Cost represents the cost basis specification for a posting, used primarily for tracking
// the acquisition cost of investments and other commodities.
//
// Example cost specifications:
//
//	24 PCS_DOVE_BAR_SOAP {424.75 HUF}
//	1.4464 USD {221.5 HUF, 2016-05-31}
//	-5 HOOL {502.12 USD, "first-lot"}
type Cost struct {
	Amount *Amount
	Date   *Date
	Label  string
}

// IsEmpty returns true if this is an empty cost specification {}.
func (c *Cost) IsEmpty() bool {
	return c != nil && c.Amount == nil && c.Date == nil && c.Label == ""
}

// Account represents a Beancount account name consisting of at least two colon-separated
// segments. The first segment (account type) must be one of the five account categories:
// Assets, Liabilities, Equity, Income, or Expenses.
//
// Example accounts:
//
//	Assets:Bank:Checking
//	Expenses:Hygiene:BarSoap
//	Expenses:Hygiene:BarSoap:Tesco:Clubcard
type Account string

// Capture validates and assigns an account name.
func (a *Account) Capture(values []string) error {
	parts := strings.Split(values[0], ":")

	if len(parts) < 2 {
		return fmt.Errorf("account must have at least two segments: %s", values[0])
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return fmt.Errorf(`unexpected account type "%s"`, parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !isValidAccountSegment(parts[i]) {
			return fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	*a = Account(values[0])
	return nil
}

// accountSegmentRegex validates account segments (after first).
var accountSegmentRegex = regexp.MustCompile(`^[\p{Lu}\p{N}][\p{L}\p{N}-]*$`)

func isValidAccountSegment(segment string) bool {
	return len(segment) > 0 && accountSegmentRegex.MatchString(segment)
}

// Join appends one or more colon-delimited parts to the account.
func (a Account) Join(parts ...string) Account {
	name := string(a)
	for _, part := range parts {
		if part == "" {
			continue
		}
		name += ":" + part
	}
	return Account(name)
}

// LastPart returns the final colon-delimited segment of the account.
func (a Account) LastPart() string {
	name := string(a)
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Parent returns the account without its final segment.
func (a Account) Parent() Account {
	name := string(a)
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return Account(name[:i])
	}
	return ""
}

// HasRoot reports whether the account lives below the given root, e.g. "Expenses".
func (a Account) HasRoot(root string) bool {
	return strings.HasPrefix(string(a), root+":")
}

// Date represents a calendar date in ISO 8601 format (YYYY-MM-DD).
type Date struct {
	time.Time
}

// Capture parses a YYYY-MM-DD date.
func (d *Date) Capture(values []string) error {
	t, err := time.Parse("2006-01-02", values[0])
	if err != nil {
		return fmt.Errorf("invalid date: %s", values[0])
	}
	d.Time = t
	return nil
}

// IsZero returns true if the Date is nil or represents the zero time.
func (d *Date) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Time.IsZero()
}

// AddDays returns a new date shifted by n days.
func (d *Date) AddDays(n int) *Date {
	return &Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d *Date) String() string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

// Link represents a reference link starting with ^, used to connect related transactions.
type Link string

// Tag represents a hashtag starting with #, used to categorize and filter transactions.
type Tag string

// MetadataValue represents a typed value that can be stored in metadata. This is a
// discriminated union where exactly one of the pointer fields is non-nil.
//
// Example metadata with different value types:
//
//	spread-source-id: "1,2"           ; String (quoted)
//	transaction-date: 2013-05-31      ; Date (ISO format)
//	transfer-account: Assets:Cash     ; Account (colon-separated)
//	target-currency: USD              ; Currency (uppercase identifier)
//	category: #vacation               ; Tag (with # prefix)
//	ratio: 42                         ; Number (decimal)
//	msrp: 19.99 USD                   ; Amount (number + currency)
//	active: TRUE                      ; Boolean (uppercase TRUE/FALSE)
type MetadataValue struct {
	StringValue *string
	Date        *Date
	Account     *Account
	Currency    *string
	Tag         *Tag
	Number      *decimal.Decimal
	Amount      *Amount
	Boolean     *bool
}

// Type returns a string representation of the metadata value's type.
func (m *MetadataValue) Type() string {
	if m == nil {
		return "nil"
	}
	switch {
	case m.StringValue != nil:
		return "string"
	case m.Date != nil:
		return "date"
	case m.Account != nil:
		return "account"
	case m.Currency != nil:
		return "currency"
	case m.Tag != nil:
		return "tag"
	case m.Number != nil:
		return "number"
	case m.Amount != nil:
		return "amount"
	case m.Boolean != nil:
		return "boolean"
	default:
		return "unknown"
	}
}

// Text returns the value as plain text: the string itself for strings, and the
// beancount spelling for accounts, currencies, dates and numbers.
func (m *MetadataValue) Text() string {
	if m == nil {
		return ""
	}
	switch {
	case m.StringValue != nil:
		return *m.StringValue
	case m.Date != nil:
		return m.Date.String()
	case m.Account != nil:
		return string(*m.Account)
	case m.Currency != nil:
		return *m.Currency
	case m.Tag != nil:
		return string(*m.Tag)
	case m.Number != nil:
		return FormatNumber(*m.Number)
	case m.Amount != nil:
		return m.Amount.String()
	case m.Boolean != nil:
		if *m.Boolean {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// String returns the value as it is written in a ledger file.
func (m *MetadataValue) String() string {
	if m == nil {
		return ""
	}
	switch {
	case m.StringValue != nil:
		return quoteString(*m.StringValue)
	case m.Tag != nil:
		return "#" + string(*m.Tag)
	default:
		return m.Text()
	}
}

func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Metadata represents a key-value pair attached to a directive or posting.
//
// Example:
//
//	2013-06-03 * "Purchase"
//	  Expenses:Discount   -5 USD
//	    spread-source-id: "all"
//	    spread-base: "unit"
type Metadata struct {
	Key   string
	Value *MetadataValue
}
