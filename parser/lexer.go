package parser

import (
	"bytes"
)

// Lexer tokenizes Beancount source. Tokens reference the source buffer by byte offset;
// the parser materializes text only for the tokens it keeps.
type Lexer struct {
	source   []byte
	filename string
	pos      int
	line     int // 1-indexed
	column   int // 1-indexed
	tokens   []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source []byte, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		column:   1,
		tokens:   make([]Token, 0, len(source)/8+16),
	}
}

// ScanAll lexes the entire source and returns all tokens, terminated by EOF.
// Whitespace, newlines and ; comments are dropped; indentation is recovered from the
// token columns.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		l.skipWhitespace()

		if l.pos >= len(l.source) {
			break
		}

		if l.peek() == ';' {
			l.skipComment()
			continue
		}

		l.tokens = append(l.tokens, l.scanToken())
	}

	l.tokens = append(l.tokens, Token{
		Type:   EOF,
		Start:  l.pos,
		End:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens
}

func (l *Lexer) scanToken() Token {
	start := l.pos
	startLine := l.line
	startCol := l.column

	ch := l.advance()

	switch {
	case ch >= '0' && ch <= '9':
		if l.isDatePattern(start) {
			return l.scanDate(start, startLine, startCol)
		}
		return l.scanNumber(start, startLine, startCol)
	case (ch == '-' || ch == '+') && l.peekIsDigit():
		return l.scanNumber(start, startLine, startCol)

	case ch == '"':
		return l.scanString(start, startLine, startCol)

	case ch == '#':
		return l.scanWord(TAG, start, startLine, startCol)
	case ch == '^':
		return l.scanWord(LINK, start, startLine, startCol)

	case ch >= 'A' && ch <= 'Z' || ch >= 0x80:
		return l.scanAccountOrIdent(start, startLine, startCol)
	case ch >= 'a' && ch <= 'z':
		return l.scanKeywordOrIdent(start, startLine, startCol)

	case ch == '*':
		return Token{ASTERISK, start, l.pos, startLine, startCol}
	case ch == '!':
		return Token{EXCLAIM, start, l.pos, startLine, startCol}
	case ch == ':':
		return Token{COLON, start, l.pos, startLine, startCol}
	case ch == ',':
		return Token{COMMA, start, l.pos, startLine, startCol}
	case ch == '{':
		return Token{LBRACE, start, l.pos, startLine, startCol}
	case ch == '}':
		return Token{RBRACE, start, l.pos, startLine, startCol}
	case ch == '@':
		if l.peek() == '@' {
			l.advance()
			return Token{ATAT, start, l.pos, startLine, startCol}
		}
		return Token{AT, start, l.pos, startLine, startCol}

	default:
		return Token{ILLEGAL, start, l.pos, startLine, startCol}
	}
}

// isDatePattern checks whether a YYYY-MM-DD date starts at start.
func (l *Lexer) isDatePattern(start int) bool {
	if start+10 > len(l.source) {
		return false
	}
	src := l.source[start:]
	for i := 0; i < 10; i++ {
		switch i {
		case 4, 7:
			if src[i] != '-' {
				return false
			}
		default:
			if !isDigit(src[i]) {
				return false
			}
		}
	}
	return true
}

func (l *Lexer) scanDate(start, line, col int) Token {
	for i := 0; i < 9; i++ {
		l.advance()
	}
	return Token{DATE, start, l.pos, line, col}
}

// scanNumber scans [-+]?[0-9]+(,[0-9]{3})*(\.[0-9]+)?
func (l *Lexer) scanNumber(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == ',' && l.isThousandsGroup(l.pos+1) {
			l.advance()
			continue
		}
		break
	}

	if l.pos+1 < len(l.source) && l.source[l.pos] == '.' && isDigit(l.source[l.pos+1]) {
		l.advance()
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.advance()
		}
	}

	return Token{NUMBER, start, l.pos, line, col}
}

// isThousandsGroup reports whether exactly three digits start at i.
func (l *Lexer) isThousandsGroup(i int) bool {
	if i+3 > len(l.source) {
		return false
	}
	if !isDigit(l.source[i]) || !isDigit(l.source[i+1]) || !isDigit(l.source[i+2]) {
		return false
	}
	return i+3 == len(l.source) || !isDigit(l.source[i+3])
}

// scanString scans a quoted string. Strings may span lines, as plugin configurations
// usually do.
func (l *Lexer) scanString(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '"' {
			l.advance()
			return Token{STRING, start, l.pos, line, col}
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance()
		}
		if l.source[l.pos] == '\n' {
			l.pos++
			l.line++
			l.column = 1
			continue
		}
		l.advance()
	}

	return Token{ILLEGAL, start, l.pos, line, col}
}

// scanWord scans the body of a tag or link: [A-Za-z0-9_-./]+
func (l *Lexer) scanWord(typ TokenType, start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '-' && ch != '.' && ch != '/' {
			break
		}
		l.advance()
	}

	return Token{typ, start, l.pos, line, col}
}

// scanAccountOrIdent scans an account name or identifier starting with a capital letter
// or a UTF-8 byte. Accounts contain colons (Assets:Bank:Checking), identifiers such as
// currencies (USD, PCS_DOVE_BAR_SOAP) don't.
func (l *Lexer) scanAccountOrIdent(start, line, col int) Token {
	hasColon := false

	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if !isLetter(ch) && !isDigit(ch) && ch < 0x80 &&
			ch != ':' && ch != '-' && ch != '_' && ch != '\'' {
			break
		}
		// A trailing colon is a separator, not part of the name.
		if ch == ':' && (l.pos+1 >= len(l.source) || !isAccountSegmentStart(l.source[l.pos+1])) {
			break
		}

		if ch == ':' {
			hasColon = true
		}
		l.advance()
	}

	if hasColon {
		return Token{ACCOUNT, start, l.pos, line, col}
	}

	return Token{IDENT, start, l.pos, line, col}
}

// scanKeywordOrIdent scans a keyword or identifier starting with a lowercase letter.
func (l *Lexer) scanKeywordOrIdent(start, line, col int) Token {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' && ch != '-' {
			break
		}
		l.advance()
	}

	return Token{keywordType(l.source[start:l.pos]), start, l.pos, line, col}
}

var keywords = map[string]TokenType{
	"txn":       TXN,
	"balance":   BALANCE,
	"open":      OPEN,
	"close":     CLOSE,
	"commodity": COMMODITY,
	"pad":       PAD,
	"note":      NOTE,
	"price":     PRICE,
	"option":    OPTION,
	"include":   INCLUDE,
	"plugin":    PLUGIN,
}

// keywordType returns the token type for a keyword, or IDENT if word is not one.
func keywordType(word []byte) TokenType {
	if typ, ok := keywords[string(word)]; ok {
		return typ
	}
	return IDENT
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) skipComment() {
	if i := bytes.IndexByte(l.source[l.pos:], '\n'); i >= 0 {
		l.column += i
		l.pos += i
		return
	}
	l.column += len(l.source) - l.pos
	l.pos = len(l.source)
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekIsDigit() bool {
	return isDigit(l.peek())
}

func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	l.column++
	return ch
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isAccountSegmentStart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch >= 0x80
}
