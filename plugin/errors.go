package plugin

import (
	"fmt"
	"strings"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// Error is a soft error reported by a plugin: where it happened, what went wrong and
// the entry at fault.
type Error struct {
	Pos       ast.Position
	Message   string
	Directive ast.Directive
}

// NewError creates an Error positioned at directive.
func NewError(directive ast.Directive, format string, args ...interface{}) *Error {
	return &Error{
		Pos:       directive.Position(),
		Message:   fmt.Sprintf(format, args...),
		Directive: directive,
	}
}

func (e *Error) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		switch {
		case e.Directive != nil:
			location = ast.DateOf(e.Directive).String()
		case e.Pos.Line > 0:
			location = fmt.Sprintf("line %d", e.Pos.Line)
		default:
			return e.Message
		}
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

func (e *Error) GetPosition() ast.Position {
	return e.Pos
}

func (e *Error) GetDirective() ast.Directive {
	return e.Directive
}

// RunError collects the soft errors of a run.
type RunError struct {
	Errors []error
}

func (e *RunError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d plugin errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *RunError) Unwrap() []error {
	return e.Errors
}
