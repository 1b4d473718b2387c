package manipulation

import (
	"fmt"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// MissingFieldError is returned when a configuration field or a metadata value that a
// manipulator depends on is absent or has the wrong type.
type MissingFieldError struct {
	Field   string
	Account ast.Account // Posting the field was expected on, if any
	Reason  string      // Optional, e.g. "must be an amount"
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("missing field %q", e.Field)
	if e.Reason != "" {
		msg = fmt.Sprintf("field %q %s", e.Field, e.Reason)
	}
	if e.Account != "" {
		msg += fmt.Sprintf(" on posting %s", e.Account)
	}
	return msg
}

// DistributionError is returned when an amount cannot be distributed, for instance
// because the weights of the candidates sum to zero.
type DistributionError struct {
	Account ast.Account // Posting whose amount was distributed
	Message string
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("cannot distribute %s: %s", e.Account, e.Message)
}

// UnknownManipulatorError is returned for a manipulator type that does not exist.
type UnknownManipulatorError struct {
	Type string
}

func (e *UnknownManipulatorError) Error() string {
	return fmt.Sprintf("manipulator type not implemented: %q", e.Type)
}

// SplitLimitError is returned when splitting a transaction does not settle within
// MaxSplitIterations rounds.
type SplitLimitError struct {
	Limit int
}

func (e *SplitLimitError) Error() string {
	return fmt.Sprintf("transaction still splitting after %d iterations", e.Limit)
}

// ManipulationError wraps the error of a manipulator with the transaction it failed on.
type ManipulationError struct {
	Manipulator string
	Directive   ast.Directive
	Err         error
}

func (e *ManipulationError) Error() string {
	pos := e.Directive.Position()
	location := fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
	if pos.Filename == "" {
		location = ast.DateOf(e.Directive).String()
	}

	return fmt.Sprintf("%s: %s: %v", location, e.Manipulator, e.Err)
}

func (e *ManipulationError) GetPosition() ast.Position {
	return e.Directive.Position()
}

func (e *ManipulationError) GetDirective() ast.Directive {
	return e.Directive
}

func (e *ManipulationError) Unwrap() error {
	return e.Err
}
