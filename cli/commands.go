package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for operations." env:"BEANCOUNT_PLUGINS_TELEMETRY"`
	Verbose   bool `help:"Log what every plugin does." short:"v" env:"BEANCOUNT_PLUGINS_VERBOSE"`
}

type Commands struct {
	Globals

	Apply   ApplyCmd   `cmd:"" help:"Run the plugins of a beancount file and print the result."`
	Format  FormatCmd  `cmd:"" help:"Format a beancount file to align numbers and currencies."`
	Plugins PluginsCmd `cmd:"" help:"List the available plugins."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging beancount files."`
}

// run prepares the context of one command run: a logger writing to stderr and, with
// --telemetry, a timing collector whose report is written to stderr by the returned
// function. The report is written at most once.
func (g *Globals) run(stderr io.Writer, name string) (context.Context, func()) {
	ctx := logging.WithLogger(context.Background(), logging.New(stderr, g.Verbose))

	if !g.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)
	timer := collector.Start(name)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(stderr)
			collector.Report(stderr, telemetry.NewStyles(isTerminal(stderr)))
		})
	}
}
