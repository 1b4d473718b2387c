// Package plugin hosts entry-rewriting plugins.
//
// A plugin receives every entry of a ledger together with the configuration text of
// its `plugin` directive and returns the rewritten entries. Problems the user can fix in
// the ledger are reported as soft errors next to the entries; only a broken setup stops
// the run.
package plugin

import (
	"context"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// Plugin rewrites the entries of a ledger.
type Plugin interface {
	// Name is the module name used in `plugin` directives, e.g. "entry_manipulation".
	Name() string

	// Apply returns the rewritten entries, soft errors to report, and a fatal error that
	// aborts the run.
	Apply(ctx context.Context, entries []ast.Directive, config string) ([]ast.Directive, []error, error)
}

// Registry maps plugin names to plugins.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry creates a registry holding plugins.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make(map[string]Plugin, len(plugins))}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any plugin with the same name.
func (r *Registry) Register(p Plugin) {
	r.plugins[p.Name()] = p
}

// Lookup finds a plugin by its name. A dotted module path such as
// "beancount_plugins.entry_manipulation" matches on its last segment.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	if p, ok := r.plugins[name]; ok {
		return p, true
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		p, ok := r.plugins[name[i+1:]]
		return p, ok
	}
	return nil, false
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.plugins)
	slices.Sort(names)
	return names
}
