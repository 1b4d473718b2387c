package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// Helper parsing methods used across directive parsers.

func (p *Parser) parseDate() (*ast.Date, error) {
	tok, err := p.expect(DATE, "expected date")
	if err != nil {
		return nil, err
	}

	var date ast.Date
	if err := date.Capture([]string{tok.String(p.source)}); err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}

	return &date, nil
}

func (p *Parser) parseAccount() (ast.Account, error) {
	if !p.check(ACCOUNT) {
		actual := p.peek()
		return "", p.errorAtToken(actual, "expected account but got %s %q", actual.Type, actual.String(p.source))
	}
	tok := p.advance()

	var account ast.Account
	if err := account.Capture([]string{tok.String(p.source)}); err != nil {
		return "", p.errorAtToken(tok, "invalid account: %v", err)
	}

	return account, nil
}

func (p *Parser) parseIdent() (string, error) {
	tok, err := p.expect(IDENT, "expected currency")
	if err != nil {
		return "", err
	}
	return tok.String(p.source), nil
}

func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(STRING, "expected string")
	if err != nil {
		return "", err
	}
	return unquoteString(tok.String(p.source)), nil
}

func (p *Parser) parseNumber() (decimal.Decimal, error) {
	tok, err := p.expect(NUMBER, "expected number")
	if err != nil {
		return decimal.Decimal{}, err
	}

	text := strings.TrimPrefix(strings.ReplaceAll(tok.String(p.source), ",", ""), "+")
	number, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, p.errorAtToken(tok, "invalid number %q", tok.String(p.source))
	}

	return number, nil
}

// parseAmount parses: NUMBER CURRENCY
func (p *Parser) parseAmount() (*ast.Amount, error) {
	number, err := p.parseNumber()
	if err != nil {
		return nil, err
	}

	currency, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	return ast.NewAmountFromDecimal(number, currency), nil
}

// parseAmountOptional parses NUMBER [CURRENCY]. The currency must be on line; without
// one the amount's currency is left empty to be inferred.
func (p *Parser) parseAmountOptional(line int) (*ast.Amount, error) {
	number, err := p.parseNumber()
	if err != nil {
		return nil, err
	}

	amount := ast.NewAmountFromDecimal(number, "")
	if p.check(IDENT) && p.onLine(p.peek(), line) {
		amount.Currency = p.advance().String(p.source)
	}

	return amount, nil
}

// parseCost parses a per-unit cost specification: { [AMOUNT] [, DATE] [, "LABEL"] }
// The components may appear in any order.
func (p *Parser) parseCost() (*ast.Cost, error) {
	if _, err := p.expect(LBRACE, "expected '{'"); err != nil {
		return nil, err
	}

	cost := &ast.Cost{}

	for !p.check(RBRACE) {
		if p.isAtEnd() {
			return nil, p.errorAtToken(p.peek(), "unterminated cost")
		}

		switch tok := p.peek(); tok.Type {
		case NUMBER:
			amount, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			cost.Amount = amount
		case DATE:
			date, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			cost.Date = date
		case STRING:
			label, err := p.parseString()
			if err != nil {
				return nil, err
			}
			cost.Label = label
		default:
			return nil, p.errorAtToken(tok, "unexpected %s %q in cost", tok.Type, tok.String(p.source))
		}

		if !p.match(COMMA) {
			break
		}
	}

	if _, err := p.expect(RBRACE, "expected '}'"); err != nil {
		return nil, err
	}

	return cost, nil
}

// parseMetadata parses the indented key: value lines following a directive header.
func (p *Parser) parseMetadata(line int) ([]*ast.Metadata, error) {
	var metadata []*ast.Metadata

	if next := p.peek(); p.onLine(next, line) {
		return nil, p.errorAtToken(next, "unexpected %s %q", next.Type, next.String(p.source))
	}

	for p.isIndented(p.peek()) && p.isMetadataKey() {
		md, err := p.parseMetadataEntry()
		if err != nil {
			return nil, err
		}
		metadata = append(metadata, md)
	}

	return metadata, nil
}

// isMetadataKey reports whether the next tokens form "key:". Keys start with a lowercase
// letter and may collide with keywords (price:, note:). The colon must follow the key
// immediately.
func (p *Parser) isMetadataKey() bool {
	key := p.peek()
	if key.Type != IDENT && !key.Type.IsKeyword() {
		return false
	}
	if c := p.source[key.Start]; c < 'a' || c > 'z' {
		return false
	}
	colon := p.peekAhead(1)
	return colon.Type == COLON && colon.Start == key.End
}

func (p *Parser) parseMetadataEntry() (*ast.Metadata, error) {
	keyTok := p.advance()
	colon := p.advance()

	md := &ast.Metadata{Key: keyTok.String(p.source)}

	if !p.onLine(p.peek(), colon.Line) {
		return md, nil
	}

	value, err := p.parseMetadataValue(colon.Line)
	if err != nil {
		return nil, err
	}
	md.Value = value

	if next := p.peek(); p.onLine(next, colon.Line) {
		return nil, p.errorAtToken(next, "unexpected %s %q after metadata value", next.Type, next.String(p.source))
	}

	return md, nil
}

func (p *Parser) parseMetadataValue(line int) (*ast.MetadataValue, error) {
	tok := p.peek()

	switch tok.Type {
	case STRING:
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return &ast.MetadataValue{StringValue: &s}, nil

	case DATE:
		date, err := p.parseDate()
		if err != nil {
			return nil, err
		}
		return &ast.MetadataValue{Date: date}, nil

	case ACCOUNT:
		account, err := p.parseAccount()
		if err != nil {
			return nil, err
		}
		return &ast.MetadataValue{Account: &account}, nil

	case NUMBER:
		number, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if p.check(IDENT) && p.onLine(p.peek(), line) {
			currency := p.advance().String(p.source)
			return &ast.MetadataValue{Amount: ast.NewAmountFromDecimal(number, currency)}, nil
		}
		return &ast.MetadataValue{Number: &number}, nil

	case IDENT:
		p.advance()
		word := tok.String(p.source)
		switch word {
		case "TRUE", "FALSE":
			b := word == "TRUE"
			return &ast.MetadataValue{Boolean: &b}, nil
		}
		return &ast.MetadataValue{Currency: &word}, nil

	case TAG:
		p.advance()
		tag := ast.NewTag(tok.String(p.source))
		return &ast.MetadataValue{Tag: &tag}, nil

	default:
		return nil, p.errorAtToken(tok, "unexpected %s %q in metadata value", tok.Type, tok.String(p.source))
	}
}

// unquoteString removes surrounding quotes from a string and resolves escapes.
func unquoteString(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
		return s[1 : len(s)-1]
	}
	return s
}

// skipLine drops every token on the current line.
func (p *Parser) skipLine() {
	line := p.peek().Line
	for !p.isAtEnd() && p.peek().Line == line {
		p.advance()
	}
}

// onLine reports whether tok is a real token on the given line.
func (p *Parser) onLine(tok Token, line int) bool {
	return tok.Type != EOF && tok.Line == line
}

// isIndented reports whether tok starts an indented continuation line.
func (p *Parser) isIndented(tok Token) bool {
	return tok.Type != EOF && tok.Column > 1
}

// Helper methods for token navigation

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) Token {
	pos := p.pos + n
	if pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[pos]
}

func (p *Parser) previous() Token {
	if p.pos == 0 {
		return Token{Type: ILLEGAL}
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) match(types ...TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) expect(typ TokenType, message string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorAtToken(tok, "%s but got %s %q", message, tok.Type, tok.String(p.source))
}

// Error helpers

func (p *Parser) errorAtToken(tok Token, format string, args ...interface{}) error {
	return &ParseError{
		Pos:     tokenPosition(tok, p.filename),
		Message: fmt.Sprintf(format, args...),
	}
}

// tokenPosition extracts position information from a token.
func tokenPosition(tok Token, filename string) ast.Position {
	return ast.Position{
		Filename: filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}
