package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-plugins/accountreplacer"
	"github.com/robinvdvleuten/beancount-plugins/balancepad"
	"github.com/robinvdvleuten/beancount-plugins/manipulation"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
	"github.com/robinvdvleuten/beancount-plugins/utilitybill"
)

// Registry returns every plugin the command line can run.
func Registry() *plugin.Registry {
	return plugin.NewRegistry(
		manipulation.NewPlugin(),
		accountreplacer.Plugin{},
		balancepad.Plugin{},
		utilitybill.Plugin{},
	)
}

// PluginsCmd lists the names accepted by `plugin` directives and --plugin.
type PluginsCmd struct{}

func (cmd *PluginsCmd) Run(ctx *kong.Context) error {
	for _, name := range Registry().Names() {
		_, _ = fmt.Fprintln(ctx.Stdout, name)
	}
	return nil
}
