package manipulation

import (
	"context"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

// PluginName is the name used in `plugin` directives.
const PluginName = "entry_manipulation"

// Plugin exposes the orchestrator as a plugin.
type Plugin struct {
	opts Options
}

var _ plugin.Plugin = (*Plugin)(nil)

// PluginOption configures the plugin.
type PluginOption func(*Plugin)

// WithOnUndistributed registers a callback for source postings that matched no target.
func WithOnUndistributed(fn func(txn *ast.Transaction, source *ast.Posting)) PluginOption {
	return func(p *Plugin) {
		p.opts.OnUndistributed = fn
	}
}

func NewPlugin(opts ...PluginOption) *Plugin {
	p := &Plugin{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string { return PluginName }

// Apply decodes config and runs the configured manipulators over entries. A config
// that cannot be decoded is reported as a soft error and leaves entries untouched; an
// invalid pipeline or a failing manipulator is fatal.
func (p *Plugin) Apply(ctx context.Context, entries []ast.Directive, config string) ([]ast.Directive, []error, error) {
	var cfg Config
	if err := plugin.DecodeConfig(ast.Position{}, config, &cfg); err != nil {
		return entries, []error{err}, nil
	}

	o, err := NewOrchestrator(cfg, p.opts)
	if err != nil {
		return nil, nil, err
	}

	out, err := o.Run(ctx, entries)
	if err != nil {
		return nil, nil, err
	}
	return out, nil, nil
}
