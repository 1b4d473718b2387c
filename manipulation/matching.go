package manipulation

import (
	"strings"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// MatchKey identifies which sources a target accepts, or which targets a source feeds.
// An empty key is a wildcard.
type MatchKey []string

// Matcher is attached to a source posting and selects the targets it distributes onto.
type Matcher struct {
	Key MatchKey
}

// Matches reports whether a target carrying key receives from this matcher. A matcher
// without key matches every target; otherwise the keys must share an element, so a
// target without ids only receives from wildcard sources.
func (m *Matcher) Matches(key MatchKey) bool {
	if len(m.Key) == 0 {
		return true
	}
	for _, a := range m.Key {
		for _, b := range key {
			if a == b {
				return true
			}
		}
	}
	return false
}

// MatcherFactory decides which postings are sources and which are targets.
type MatcherFactory interface {
	// Matcher returns the matcher of p, or false when p is not a source.
	Matcher(p *ast.Posting) (*Matcher, bool)

	// MatchData returns the match key of p as a target, and its metadata with the
	// target-identifying entries consumed.
	MatchData(p *ast.Posting) (MatchKey, []*ast.Metadata)
}

// IDMatcherFactory matches sources and targets on comma-separated id lists, such as
// `spread-source-id: "1,2"` and `spread-target-id: "2"`. The id "all" matches every
// target.
type IDMatcherFactory struct {
	SourceIDKey string
	TargetIDKey string
}

func (f IDMatcherFactory) Matcher(p *ast.Posting) (*Matcher, bool) {
	text, ok := ast.LookupText(p.Metadata, f.SourceIDKey)
	if !ok || text == "" {
		return nil, false
	}
	return &Matcher{Key: parseIDs(text)}, true
}

func (f IDMatcherFactory) MatchData(p *ast.Posting) (MatchKey, []*ast.Metadata) {
	if f.TargetIDKey == "" {
		return nil, p.Metadata
	}
	text, ok := ast.LookupText(p.Metadata, f.TargetIDKey)
	if !ok {
		return nil, p.Metadata
	}
	return parseIDs(text), ast.Without(p.Metadata, f.TargetIDKey)
}

func parseIDs(text string) MatchKey {
	if strings.TrimSpace(text) == "all" {
		return nil
	}

	var ids MatchKey
	for _, id := range strings.Split(text, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// AccountMatcherFactory matches postings of the same account. A posting carrying
// AccountPostfixKey spreads onto the other postings of its own account.
type AccountMatcherFactory struct {
	AccountPostfixKey string
}

func (f AccountMatcherFactory) Matcher(p *ast.Posting) (*Matcher, bool) {
	if !ast.Has(p.Metadata, f.AccountPostfixKey) {
		return nil, false
	}
	return &Matcher{Key: MatchKey{string(p.Account)}}, true
}

func (f AccountMatcherFactory) MatchData(p *ast.Posting) (MatchKey, []*ast.Metadata) {
	return MatchKey{string(p.Account)}, p.Metadata
}
