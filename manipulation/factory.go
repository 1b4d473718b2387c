package manipulation

import (
	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// DefaultTargetRoot is the account root of postings that can receive shares.
const DefaultTargetRoot = "Expenses"

// WrapperFactory sorts the postings of a transaction into sources, targets and
// postings the consolidation does not touch.
type WrapperFactory struct {
	Matchers     MatcherFactory
	Distribution ValueGetter

	// TargetRoot defaults to DefaultTargetRoot.
	TargetRoot string
}

// Wrapped holds the postings of one transaction after wrapping. Postings keeps the
// original order: each slot holds exactly one of Source, Target or Posting.
type Wrapped struct {
	Sources    []*SourcePosting
	Targets    []*TargetPosting
	Irrelevant []*ast.Posting

	Slots []Slot
}

// Slot is one posting of the wrapped transaction.
type Slot struct {
	Source  *SourcePosting
	Target  *TargetPosting
	Posting *ast.Posting
}

// Wrap classifies postings. A posting with a matcher is a source; otherwise a posting
// below the target root is a target; everything else is irrelevant.
func (f WrapperFactory) Wrap(postings []*ast.Posting) (*Wrapped, error) {
	root := f.TargetRoot
	if root == "" {
		root = DefaultTargetRoot
	}

	w := &Wrapped{}
	for _, p := range postings {
		if matcher, ok := f.Matchers.Matcher(p); ok {
			source, err := f.newSource(p, matcher)
			if err != nil {
				return nil, err
			}
			w.Sources = append(w.Sources, source)
			w.Slots = append(w.Slots, Slot{Source: source})
			continue
		}

		if p.Account.HasRoot(root) {
			key, md := f.Matchers.MatchData(p)
			consumed := p
			if len(md) != len(p.Metadata) {
				consumed = p.Clone()
				consumed.Metadata = md
			}
			target := newTargetPosting(consumed, key)
			w.Targets = append(w.Targets, target)
			w.Slots = append(w.Slots, Slot{Target: target})
			continue
		}

		w.Irrelevant = append(w.Irrelevant, p)
		w.Slots = append(w.Slots, Slot{Posting: p})
	}

	return w, nil
}

func (f WrapperFactory) newSource(p *ast.Posting, matcher *Matcher) (*SourcePosting, error) {
	text, ok := f.Distribution.Value(p)
	if !ok {
		return nil, &MissingFieldError{Field: fieldName(f.Distribution), Account: p.Account}
	}

	distribution, err := ParseDistribution(text)
	if err != nil {
		return nil, &MissingFieldError{Field: fieldName(f.Distribution), Account: p.Account, Reason: err.Error()}
	}

	if p.Amount == nil {
		return nil, &MissingFieldError{Field: "units", Account: p.Account}
	}

	return &SourcePosting{
		Posting:      p,
		Distribution: distribution,
		Matcher:      matcher,
		Max:          p.Amount.Number,
	}, nil
}

// Candidates returns the targets source distributes onto.
func (w *Wrapped) Candidates(source *SourcePosting) []*TargetPosting {
	var candidates []*TargetPosting
	for _, t := range w.Targets {
		if source.Matcher.Matches(t.MatchKey) {
			candidates = append(candidates, t)
		}
	}
	return candidates
}
