package plugin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// Runner applies the plugin directives of a ledger in file order.
type Runner struct {
	registry *Registry
}

// NewRunner creates a runner resolving plugin names through registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// Run feeds the directives of tree through every declared plugin. Each plugin sees the
// output of the previous one.
//
// The returned AST is valid whenever the error is nil or a *RunError, which carries the
// soft errors of all plugins. Any other error is fatal and no AST is returned.
func (r *Runner) Run(ctx context.Context, tree *ast.AST) (*ast.AST, error) {
	logger := logging.FromContext(ctx)
	entries := []ast.Directive(tree.Directives)

	var errs error
	for _, decl := range tree.Plugins {
		p, ok := r.registry.Lookup(decl.Name)
		if !ok {
			errs = multierr.Append(errs, &Error{
				Pos:     decl.Pos,
				Message: fmt.Sprintf("unknown plugin %q", decl.Name),
			})
			continue
		}

		logger.Debug("running plugin", zap.String("plugin", p.Name()), zap.Int("entries", len(entries)))

		timer := telemetry.FromContext(ctx).Start("plugin " + p.Name())
		out, soft, err := p.Apply(ctx, entries, decl.Config)
		timer.End()

		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}

		for _, e := range soft {
			locate(e, decl.Pos)
		}

		entries = out
		errs = multierr.Append(errs, multierr.Combine(soft...))
	}

	result := &ast.AST{
		Directives: entries,
		Options:    tree.Options,
		Includes:   tree.Includes,
		Plugins:    tree.Plugins,
	}

	if errs != nil {
		return result, &RunError{Errors: multierr.Errors(errs)}
	}
	return result, nil
}

// locate points errors that carry no location at the plugin directive.
func locate(err error, pos ast.Position) {
	var perr *Error
	if errors.As(err, &perr) && perr.Directive == nil && perr.Pos.IsZero() {
		perr.Pos = pos
	}
}
