// Package formatter prints entries back to Beancount syntax.
//
// Output is canonical rather than a faithful copy of the source: every directive is
// separated by a blank line, strings are re-quoted, and the currencies of postings,
// balances, prices and amount metadata line up in one column.
package formatter

import (
	"context"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

const (
	// DefaultCurrencyColumn is the number column used when nothing is aligned.
	DefaultCurrencyColumn = 0

	// DefaultIndentation is the indentation of postings and metadata.
	DefaultIndentation = 2

	// MinimumSpacing is the minimum number of spaces before a number.
	MinimumSpacing = 2
)

// Formatter prints entries.
type Formatter struct {
	// CurrencyColumn is the display column at which numbers end. When 0 it is
	// derived from the widest line of the entries being printed.
	CurrencyColumn int

	// Indentation is the number of spaces before postings and metadata.
	Indentation int
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithCurrencyColumn fixes the column at which numbers end.
func WithCurrencyColumn(col int) Option {
	return func(f *Formatter) {
		f.CurrencyColumn = col
	}
}

// WithIndentation sets the indentation of postings and metadata.
func WithIndentation(n int) Option {
	return func(f *Formatter) {
		f.Indentation = n
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		CurrencyColumn: DefaultCurrencyColumn,
		Indentation:    DefaultIndentation,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Format writes the options, plugins and includes of tree followed by its directives.
func (f *Formatter) Format(ctx context.Context, tree *ast.AST, w io.Writer) error {
	timer := telemetry.FromContext(ctx).Start("formatter.format")
	defer timer.End()

	p := f.printer(tree.Directives...)

	for _, opt := range tree.Options {
		p.line("option " + quote(opt.Name) + " " + quote(opt.Value))
	}
	for _, plugin := range tree.Plugins {
		if plugin.Config == "" {
			p.line("plugin " + quote(plugin.Name))
			continue
		}
		p.line("plugin " + quote(plugin.Name) + " " + quote(plugin.Config))
	}
	for _, inc := range tree.Includes {
		p.line("include " + quote(inc.Filename))
	}

	for i, d := range tree.Directives {
		if i > 0 || p.buf.Len() > 0 {
			p.buf.WriteByte('\n')
		}
		p.directive(d)
	}

	_, err := io.WriteString(w, p.buf.String())
	return err
}

// FormatDirective writes a single directive.
func (f *Formatter) FormatDirective(d ast.Directive, w io.Writer) error {
	p := f.printer(d)
	p.directive(d)
	_, err := io.WriteString(w, p.buf.String())
	return err
}

// FormatTransaction writes a single transaction.
func (f *Formatter) FormatTransaction(t *ast.Transaction, w io.Writer) error {
	return f.FormatDirective(t, w)
}

func (f *Formatter) printer(directives ...ast.Directive) *printer {
	p := &printer{
		indent: strings.Repeat(" ", f.Indentation),
		column: f.CurrencyColumn,
	}
	if p.column == 0 {
		p.column = p.measure(directives)
	}
	return p
}

// printer accumulates the output of one Format call.
type printer struct {
	buf    strings.Builder
	indent string
	column int
}

func (p *printer) line(s string) {
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

// aligned returns prefix followed by the amount, its number ending at the column.
func (p *printer) aligned(prefix string, amount *ast.Amount) string {
	number := ast.FormatNumber(amount.Number)
	padding := p.column - runewidth.StringWidth(prefix) - runewidth.StringWidth(number)
	if padding < MinimumSpacing {
		padding = MinimumSpacing
	}
	return prefix + strings.Repeat(" ", padding) + number + " " + amount.Currency
}

// measure returns the column at which the numbers of directives end when the widest
// aligned line keeps MinimumSpacing before its number.
func (p *printer) measure(directives []ast.Directive) int {
	column := 0
	fit := func(prefix string, amount *ast.Amount) {
		if amount == nil {
			return
		}
		width := runewidth.StringWidth(prefix) + MinimumSpacing + runewidth.StringWidth(ast.FormatNumber(amount.Number))
		column = max(column, width)
	}
	fitMetadata := func(indent string, md []*ast.Metadata) {
		for _, m := range md {
			if m.Value != nil && m.Value.Amount != nil {
				fit(indent+m.Key+":", m.Value.Amount)
			}
		}
	}

	for _, d := range directives {
		fitMetadata(p.indent, d.GetMetadata())

		switch e := d.(type) {
		case *ast.Transaction:
			for _, posting := range e.Postings {
				fit(p.postingPrefix(posting), posting.Amount)
				fitMetadata(p.indent+p.indent, posting.Metadata)
			}
		case *ast.Balance:
			fit(e.Date.String()+" balance "+string(e.Account), e.Amount)
		case *ast.Price:
			fit(e.Date.String()+" price "+e.Commodity, e.Amount)
		}
	}
	return column
}

func (p *printer) postingPrefix(posting *ast.Posting) string {
	prefix := p.indent
	if posting.Flag != "" {
		prefix += posting.Flag + " "
	}
	return prefix + string(posting.Account)
}

func (p *printer) directive(d ast.Directive) {
	switch e := d.(type) {
	case *ast.Transaction:
		p.transaction(e)
	case *ast.Open:
		s := e.Date.String() + " open " + string(e.Account)
		if len(e.ConstraintCurrencies) > 0 {
			s += " " + strings.Join(e.ConstraintCurrencies, ",")
		}
		if e.BookingMethod != "" {
			s += " " + quote(e.BookingMethod)
		}
		p.line(s)
	case *ast.Close:
		p.line(e.Date.String() + " close " + string(e.Account))
	case *ast.Balance:
		p.line(p.aligned(e.Date.String()+" balance "+string(e.Account), e.Amount))
	case *ast.Pad:
		p.line(e.Date.String() + " pad " + string(e.Account) + " " + string(e.AccountPad))
	case *ast.Note:
		p.line(e.Date.String() + " note " + string(e.Account) + " " + quote(e.Description))
	case *ast.Price:
		p.line(p.aligned(e.Date.String()+" price "+e.Commodity, e.Amount))
	case *ast.Commodity:
		p.line(e.Date.String() + " commodity " + e.Currency)
	}

	if _, ok := d.(*ast.Transaction); !ok {
		p.metadata(p.indent, d.GetMetadata())
	}
}

// transaction prints the header, the metadata and the postings of t.
func (p *printer) transaction(t *ast.Transaction) {
	var b strings.Builder
	b.WriteString(t.Date.String())
	b.WriteByte(' ')
	b.WriteString(t.Flag)
	if t.Payee != "" {
		b.WriteString(" " + quote(t.Payee))
	}
	b.WriteString(" " + quote(t.Narration))
	for _, link := range t.Links {
		b.WriteString(" ^" + string(link))
	}
	for _, tag := range t.Tags {
		b.WriteString(" #" + string(tag))
	}
	p.line(b.String())

	p.metadata(p.indent, t.Metadata)

	for _, posting := range t.Postings {
		p.posting(posting)
	}
}

func (p *printer) posting(posting *ast.Posting) {
	s := p.postingPrefix(posting)

	if posting.Amount != nil {
		s = p.aligned(s, posting.Amount)

		if posting.Cost != nil {
			s += " " + cost(posting.Cost)
		}

		if posting.Price != nil {
			if posting.PriceTotal {
				s += " @@ "
			} else {
				s += " @ "
			}
			s += posting.Price.String()
		}
	}

	p.line(s)
	p.metadata(p.indent+p.indent, posting.Metadata)
}

func (p *printer) metadata(indent string, md []*ast.Metadata) {
	for _, m := range md {
		if m.Value != nil && m.Value.Amount != nil {
			p.line(p.aligned(indent+m.Key+":", m.Value.Amount))
			continue
		}
		p.line(indent + m.Key + ": " + m.Value.String())
	}
}

// cost formats a cost specification such as {424.75 HUF, 2016-05-31, "lot"}.
func cost(c *ast.Cost) string {
	var parts []string
	if c.Amount != nil {
		parts = append(parts, c.Amount.String())
	}
	if c.Date != nil {
		parts = append(parts, c.Date.String())
	}
	if c.Label != "" {
		parts = append(parts, quote(c.Label))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
