package parser

import (
	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// parseTransaction parses a transaction header followed by its indented metadata and
// postings:
//
//	DATE [txn|FLAG] ["PAYEE"] ["NARRATION"] [#tag|^link]*
//	  key: value
//	  [FLAG] ACCOUNT [AMOUNT] [{COST}] [@|@@ PRICE]
//	    key: value
func (p *Parser) parseTransaction(pos ast.Position, date *ast.Date) (*ast.Transaction, error) {
	flagTok := p.advance()
	line := flagTok.Line

	txn := &ast.Transaction{Pos: pos, Date: date, Flag: "*"}
	if flagTok.Type != TXN {
		txn.Flag = flagTok.String(p.source)
	}

	var strs []string
	for p.check(STRING) && p.onLine(p.peek(), line) {
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		strs = append(strs, s)
	}

	switch len(strs) {
	case 0:
	case 1:
		txn.Narration = strs[0]
	case 2:
		txn.Payee, txn.Narration = strs[0], strs[1]
	default:
		return nil, p.errorAtToken(flagTok, "too many strings on transaction line")
	}

	for p.onLine(p.peek(), line) {
		switch tok := p.advance(); tok.Type {
		case TAG:
			txn.Tags = append(txn.Tags, ast.NewTag(tok.String(p.source)))
		case LINK:
			txn.Links = append(txn.Links, ast.NewLink(tok.String(p.source)))
		default:
			return nil, p.errorAtToken(tok, "unexpected %s on transaction line", tok.Type)
		}
	}

	for p.isIndented(p.peek()) {
		tok := p.peek()

		if p.isMetadataKey() {
			if len(txn.Postings) == 0 {
				md, err := p.parseMetadataEntry()
				if err != nil {
					return nil, err
				}
				txn.AddMetadata(md)
				continue
			}

			last := txn.Postings[len(txn.Postings)-1]
			md, err := p.parseMetadataEntry()
			if err != nil {
				return nil, err
			}
			last.AddMetadata(md)
			continue
		}

		// Tags and links may continue on indented lines.
		if tok.Type == TAG || tok.Type == LINK {
			p.advance()
			if tok.Type == TAG {
				txn.Tags = append(txn.Tags, ast.NewTag(tok.String(p.source)))
			} else {
				txn.Links = append(txn.Links, ast.NewLink(tok.String(p.source)))
			}
			continue
		}

		posting, err := p.parsePosting()
		if err != nil {
			return nil, err
		}
		txn.Postings = append(txn.Postings, posting)
	}

	return txn, nil
}

// parsePosting parses: [FLAG] ACCOUNT [AMOUNT] [{COST}] [@|@@ PRICE]
func (p *Parser) parsePosting() (*ast.Posting, error) {
	start := p.peek()
	posting := &ast.Posting{Pos: tokenPosition(start, p.filename)}

	if p.check(ASTERISK) || p.check(EXCLAIM) {
		posting.Flag = p.advance().String(p.source)
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	line := start.Line

	if p.check(NUMBER) && p.onLine(p.peek(), line) {
		if posting.Amount, err = p.parseAmountOptional(line); err != nil {
			return nil, err
		}
	}

	if p.check(LBRACE) && p.onLine(p.peek(), line) {
		if posting.Cost, err = p.parseCost(); err != nil {
			return nil, err
		}
	}

	if (p.check(AT) || p.check(ATAT)) && p.onLine(p.peek(), line) {
		posting.PriceTotal = p.advance().Type == ATAT
		if posting.Price, err = p.parseAmount(); err != nil {
			return nil, err
		}
	}

	if next := p.peek(); p.onLine(next, line) {
		return nil, p.errorAtToken(next, "unexpected %s %q in posting", next.Type, next.String(p.source))
	}

	return posting, nil
}
