// Package ast declares the types used to represent the entries of a Beancount ledger.
//
// Plugins consume and produce these values. Entries are treated as values: a plugin that
// rewrites an entry builds a new one (see Clone and the metadata helpers) instead of
// mutating the entry it was given, so the same input can safely flow through several
// plugins or manipulators.
package ast

import (
	"golang.org/x/exp/slices"
)

// Directives is a slice of Directive that implements sort.Interface.
type Directives []Directive

func (d Directives) Len() int           { return len(d) }
func (d Directives) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d Directives) Less(i, j int) bool { return compareDirectives(d[i], d[j]) < 0 }

// SortStable orders the directives by date and type priority, keeping file order for ties.
func (d Directives) SortStable() {
	slices.SortStableFunc(d, compareDirectives)
}

// compareDirectives compares two directives by their date, then by type priority.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// For same-date directives, the processing order is:
//  1. Open (accounts must be opened before use)
//  2. Balance (assertions apply at the beginning of the day)
//  3. All other directives
//  4. Close
func compareDirectives(a, b Directive) int {
	if a.date().Before(b.date().Time) {
		return -1
	} else if a.date().After(b.date().Time) {
		return 1
	}

	aPriority := directiveTypePriority(a)
	bPriority := directiveTypePriority(b)
	if aPriority < bPriority {
		return -1
	} else if aPriority > bPriority {
		return 1
	}

	return 0
}

func directiveTypePriority(d Directive) int {
	switch d.(type) {
	case *Open:
		return 0
	case *Balance:
		return 1
	case *Close:
		return 3
	default:
		return 2
	}
}

// DateOf returns the date of any directive.
func DateOf(d Directive) *Date {
	return d.date()
}

// AST represents a parsed Beancount file containing directives, options, includes,
// and plugin declarations.
type AST struct {
	Directives Directives
	Options    []*Option
	Includes   []*Include
	Plugins    []*Plugin
}

// WithMetadata is an interface for AST nodes that can have metadata attached.
type WithMetadata interface {
	AddMetadata(...*Metadata)
	GetMetadata() []*Metadata
}

// withMetadata is an embeddable struct that implements WithMetadata.
type withMetadata struct {
	Metadata []*Metadata
}

func (w *withMetadata) AddMetadata(m ...*Metadata) {
	w.Metadata = append(w.Metadata, m...)
}

func (w *withMetadata) GetMetadata() []*Metadata {
	return w.Metadata
}

// Directive is implemented by every dated entry of a ledger.
type Directive interface {
	WithMetadata

	date() *Date
	Position() Position
	Kind() string
}

// Option sets a ledger-wide option.
//
// Example:
//
//	option "title" "Personal Ledger"
type Option struct {
	Pos   Position
	Name  string
	Value string
}

// Include pulls the directives of another file into this ledger.
//
// Example:
//
//	include "accounts.beancount"
type Include struct {
	Pos      Position
	Filename string
}

// Plugin declares a plugin to run over the ledger's entries, with an optional
// configuration string handed to the plugin verbatim.
//
// Example:
//
//	plugin "entry_manipulation" "{'manipulators': [{'type': 'posting-splitter'}]}"
type Plugin struct {
	Pos    Position
	Name   string
	Config string
}
