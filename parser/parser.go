// Package parser turns Beancount source into an *ast.AST.
//
// The parser is hand-written on top of a zero-copy lexer. It understands the subset of
// the Beancount grammar that the plugins in this module consume: transactions, the
// account lifecycle directives, balance, pad, note, price and commodity entries, and
// the option, include and plugin header lines. Lines that do not start with a date or
// a header keyword at column one (org-mode headings, prose) are skipped.
package parser

import (
	"context"
	"os"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// Parser is a recursive descent parser over the token stream produced by Lexer.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
}

// NewParser creates a parser for source. The filename is only used in positions.
func NewParser(source []byte, filename string) *Parser {
	lexer := NewLexer(source, filename)
	return &Parser{
		source:   source,
		filename: filename,
		tokens:   lexer.ScanAll(),
	}
}

// ParseBytes parses a ledger held in memory.
func ParseBytes(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	timer := telemetry.FromContext(ctx).Start("parser.parse " + displayName(filename))
	defer timer.End()

	return NewParser(data, filename).Parse()
}

// ParseString parses a ledger from a string, mostly for tests and examples.
func ParseString(ctx context.Context, src string) (*ast.AST, error) {
	return ParseBytes(ctx, "", []byte(src))
}

// MustParseString is like ParseString but panics on a syntax error.
func MustParseString(ctx context.Context, src string) *ast.AST {
	tree, err := ParseString(ctx, src)
	if err != nil {
		panic(err)
	}
	return tree
}

// ParseFile reads and parses a ledger file.
func ParseFile(ctx context.Context, filename string) (*ast.AST, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseBytes(ctx, filename, data)
}

func displayName(filename string) string {
	if filename == "" {
		return "<string>"
	}
	return filename
}

// Parse parses the whole token stream. Parsing stops at the first syntax error.
func (p *Parser) Parse() (*ast.AST, error) {
	tree := &ast.AST{}

	for !p.isAtEnd() {
		tok := p.peek()

		if tok.Column != 1 {
			return nil, p.errorAtToken(tok, "unexpected indented %s outside of an entry", tok.Type)
		}

		switch tok.Type {
		case DATE:
			directive, err := p.parseDirective()
			if err != nil {
				return nil, err
			}
			tree.Directives = append(tree.Directives, directive)

		case OPTION:
			option, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, option)

		case INCLUDE:
			include, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, include)

		case PLUGIN:
			plugin, err := p.parsePlugin()
			if err != nil {
				return nil, err
			}
			tree.Plugins = append(tree.Plugins, plugin)

		default:
			p.skipLine()
		}
	}

	return tree, nil
}

// parseDirective dispatches on the token that follows the date.
func (p *Parser) parseDirective() (ast.Directive, error) {
	dateTok := p.peek()
	date, err := p.parseDate()
	if err != nil {
		return nil, err
	}
	pos := tokenPosition(dateTok, p.filename)

	next := p.peek()
	if !p.onLine(next, dateTok.Line) {
		return nil, p.errorAtToken(dateTok, "expected directive after date")
	}

	switch next.Type {
	case TXN, ASTERISK, EXCLAIM:
		return p.parseTransaction(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case BALANCE:
		return p.parseBalance(pos, date)
	case PAD:
		return p.parsePad(pos, date)
	case COMMODITY:
		return p.parseCommodity(pos, date)
	case NOTE:
		return p.parseNote(pos, date)
	case PRICE:
		return p.parsePrice(pos, date)
	case IDENT:
		// A single capital letter is a flag, as in the "P" of generated padding.
		word := next.String(p.source)
		if len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z' {
			return p.parseTransaction(pos, date)
		}
		return nil, p.errorAtToken(next, "unsupported directive %q", word)
	default:
		return nil, p.errorAtToken(next, "unsupported directive %q", next.String(p.source))
	}
}

// parseOption parses: option "name" "value"
func (p *Parser) parseOption() (*ast.Option, error) {
	tok := p.advance()
	option := &ast.Option{Pos: tokenPosition(tok, p.filename)}

	var err error
	if option.Name, err = p.parseString(); err != nil {
		return nil, err
	}
	if option.Value, err = p.parseString(); err != nil {
		return nil, err
	}

	return option, nil
}

// parseInclude parses: include "path"
func (p *Parser) parseInclude() (*ast.Include, error) {
	tok := p.advance()
	include := &ast.Include{Pos: tokenPosition(tok, p.filename)}

	var err error
	if include.Filename, err = p.parseString(); err != nil {
		return nil, err
	}

	return include, nil
}

// parsePlugin parses: plugin "module" ["config"]
func (p *Parser) parsePlugin() (*ast.Plugin, error) {
	tok := p.advance()
	plugin := &ast.Plugin{Pos: tokenPosition(tok, p.filename)}

	var err error
	if plugin.Name, err = p.parseString(); err != nil {
		return nil, err
	}
	if p.check(STRING) && p.onLine(p.peek(), tok.Line) {
		if plugin.Config, err = p.parseString(); err != nil {
			return nil, err
		}
	}

	return plugin, nil
}
