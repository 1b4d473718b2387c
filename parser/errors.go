package parser

import (
	"fmt"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// ParseError represents a syntax error during parsing.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = fmt.Sprintf("line %d", e.Pos.Line)
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ParseError) GetDirective() ast.Directive {
	return nil // Parse errors don't have directive context
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}
