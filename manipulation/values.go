package manipulation

import (
	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// ValueGetter reads a configuration value for a posting, either fixed in the plugin
// configuration or from the posting's metadata.
type ValueGetter interface {
	Value(p *ast.Posting) (string, bool)
}

// FixedValue returns the same value for every posting.
type FixedValue string

func (v FixedValue) Value(*ast.Posting) (string, bool) {
	return string(v), v != ""
}

// MetadataValue reads the textual value of Key on the posting.
type MetadataValue struct {
	Key string
}

func (v MetadataValue) Value(p *ast.Posting) (string, bool) {
	return ast.LookupText(p.Metadata, v.Key)
}

// fallbackValue tries each getter in turn.
type fallbackValue []ValueGetter

func (f fallbackValue) Value(p *ast.Posting) (string, bool) {
	for _, g := range f {
		if v, ok := g.Value(p); ok {
			return v, true
		}
	}
	return "", false
}

func fieldName(g ValueGetter) string {
	switch g := g.(type) {
	case MetadataValue:
		return g.Key
	case fallbackValue:
		for _, inner := range g {
			if name := fieldName(inner); name != "" {
				return name
			}
		}
	}
	return "distribution"
}

// AccountNamer derives the account part appended to a target that received a share
// from source.
type AccountNamer interface {
	AccountName(source, target *ast.Posting) (string, bool)
}

// FixedName always appends the same part.
type FixedName string

func (n FixedName) AccountName(_, _ *ast.Posting) (string, bool) {
	return string(n), true
}

// LastPartName appends the last segment of the source account (or of the target
// account when FromSource is false).
type LastPartName struct {
	FromSource bool
}

func (n LastPartName) AccountName(source, target *ast.Posting) (string, bool) {
	if n.FromSource {
		return source.Account.LastPart(), true
	}
	return target.Account.LastPart(), true
}

// MetadataName appends the text stored under Key on the source (or the target).
type MetadataName struct {
	Key        string
	FromSource bool
}

func (n MetadataName) AccountName(source, target *ast.Posting) (string, bool) {
	p := target
	if n.FromSource {
		p = source
	}
	text, ok := ast.LookupText(p.Metadata, n.Key)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}
