package parser

// TokenType represents the type of token scanned from the input.
type TokenType uint8

const (
	EOF TokenType = iota
	ILLEGAL

	// Keywords
	TXN       // txn
	BALANCE   // balance
	OPEN      // open
	CLOSE     // close
	COMMODITY // commodity
	PAD       // pad
	NOTE      // note
	PRICE     // price
	OPTION    // option
	INCLUDE   // include
	PLUGIN    // plugin

	// Literals
	DATE    // YYYY-MM-DD
	ACCOUNT // Assets:Bank:Checking
	STRING  // "quoted string"
	NUMBER  // 123.45, -1,170.00
	IDENT   // USD, TRUE, metadata keys

	TAG  // #tag
	LINK // ^link

	// Symbols
	ASTERISK // *
	EXCLAIM  // !
	COLON    // :
	COMMA    // ,
	AT       // @
	ATAT     // @@
	LBRACE   // {
	RBRACE   // }
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	TXN:       "txn",
	BALANCE:   "balance",
	OPEN:      "open",
	CLOSE:     "close",
	COMMODITY: "commodity",
	PAD:       "pad",
	NOTE:      "note",
	PRICE:     "price",
	OPTION:    "option",
	INCLUDE:   "include",
	PLUGIN:    "plugin",

	DATE:    "DATE",
	ACCOUNT: "ACCOUNT",
	STRING:  "STRING",
	NUMBER:  "NUMBER",
	IDENT:   "IDENT",

	TAG:  "TAG",
	LINK: "LINK",

	ASTERISK: "*",
	EXCLAIM:  "!",
	COLON:    ":",
	COMMA:    ",",
	AT:       "@",
	ATAT:     "@@",
	LBRACE:   "{",
	RBRACE:   "}",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword reports whether the token type is a directive keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TXN && t <= PLUGIN
}

// Token represents a lexical token. It stores byte offsets into the source buffer
// instead of the token text.
type Token struct {
	Type   TokenType
	Start  int // Byte offset into source buffer
	End    int // End offset (exclusive)
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// String materializes the token text from the source buffer.
func (t Token) String(source []byte) string {
	if t.Start >= len(source) || t.End > len(source) || t.Start > t.End {
		return ""
	}
	return string(source[t.Start:t.End])
}
