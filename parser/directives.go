package parser

import (
	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// parseOpen parses: DATE open ACCOUNT [CURRENCY[,CURRENCY]*] ["BOOKING"]
func (p *Parser) parseOpen(pos ast.Position, date *ast.Date) (*ast.Open, error) {
	line := p.advance().Line

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{Pos: pos, Date: date, Account: account}

	if p.check(IDENT) && p.onLine(p.peek(), line) {
		open.ConstraintCurrencies = append(open.ConstraintCurrencies, p.advance().String(p.source))
		for p.check(COMMA) && p.onLine(p.peek(), line) {
			p.advance()
			currency, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			open.ConstraintCurrencies = append(open.ConstraintCurrencies, currency)
		}
	}

	if p.check(STRING) && p.onLine(p.peek(), line) {
		if open.BookingMethod, err = p.parseString(); err != nil {
			return nil, err
		}
	}

	if open.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return open, nil
}

// parseClose parses: DATE close ACCOUNT
func (p *Parser) parseClose(pos ast.Position, date *ast.Date) (*ast.Close, error) {
	line := p.advance().Line

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	closeDirective := &ast.Close{Pos: pos, Date: date, Account: account}
	if closeDirective.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return closeDirective, nil
}

// parseBalance parses: DATE balance ACCOUNT AMOUNT
func (p *Parser) parseBalance(pos ast.Position, date *ast.Date) (*ast.Balance, error) {
	line := p.advance().Line

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	balance := &ast.Balance{Pos: pos, Date: date, Account: account, Amount: amount}
	if balance.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return balance, nil
}

// parsePad parses: DATE pad ACCOUNT ACCOUNT
func (p *Parser) parsePad(pos ast.Position, date *ast.Date) (*ast.Pad, error) {
	line := p.advance().Line

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	padAccount, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	pad := &ast.Pad{Pos: pos, Date: date, Account: account, AccountPad: padAccount}
	if pad.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return pad, nil
}

// parseCommodity parses: DATE commodity CURRENCY
func (p *Parser) parseCommodity(pos ast.Position, date *ast.Date) (*ast.Commodity, error) {
	line := p.advance().Line

	currency, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	commodity := &ast.Commodity{Pos: pos, Date: date, Currency: currency}
	if commodity.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return commodity, nil
}

// parseNote parses: DATE note ACCOUNT "DESCRIPTION"
func (p *Parser) parseNote(pos ast.Position, date *ast.Date) (*ast.Note, error) {
	line := p.advance().Line

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	description, err := p.parseString()
	if err != nil {
		return nil, err
	}

	note := &ast.Note{Pos: pos, Date: date, Account: account, Description: description}
	if note.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return note, nil
}

// parsePrice parses: DATE price COMMODITY AMOUNT
func (p *Parser) parsePrice(pos ast.Position, date *ast.Date) (*ast.Price, error) {
	line := p.advance().Line

	commodity, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	price := &ast.Price{Pos: pos, Date: date, Commodity: commodity, Amount: amount}
	if price.Metadata, err = p.parseMetadata(line); err != nil {
		return nil, err
	}

	return price, nil
}
