package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/formatter"
	"github.com/robinvdvleuten/beancount-plugins/loader"
	"github.com/robinvdvleuten/beancount-plugins/logging"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

// ApplyCmd runs the plugins declared in a ledger and prints the rewritten ledger.
type ApplyCmd struct {
	File           FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Plugin         []string    `help:"Run an additional plugin after those declared in the file. Repeatable." sep:"none" placeholder:"NAME"`
	Config         []string    `help:"Configuration of the --plugin at the same position." sep:"none" placeholder:"TEXT"`
	CurrencyColumn int         `help:"Column at which numbers end (auto-calculated from content if 0)." default:"0" env:"BEANCOUNT_PLUGINS_CURRENCY_COLUMN"`
	Write          bool        `help:"Overwrite the input file instead of printing the result. Comments are not kept." short:"w"`
	Yes            bool        `help:"Do not ask before overwriting." short:"y"`
	Watch          bool        `help:"Apply again whenever the file or one of its includes changes."`
}

func (cmd *ApplyCmd) Run(ctx *kong.Context, globals *Globals) error {
	// Writing the file would trigger the watcher, and the written ledger declares no
	// plugins left to apply.
	if cmd.Write && cmd.Watch {
		return errors.New("--write and --watch cannot be used together")
	}

	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	extra, err := cmd.extraPlugins()
	if err != nil {
		return err
	}

	if cmd.File.IsStdin() && (cmd.Write || cmd.Watch) {
		return errors.New("--write and --watch need a file, not stdin")
	}

	if cmd.Watch {
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return cmd.watch(sigCtx, ctx, globals, extra)
	}

	_, err = cmd.apply(ctx, globals, extra)
	return err
}

// extraPlugins pairs every --plugin with the --config at the same position.
func (cmd *ApplyCmd) extraPlugins() ([]*ast.Plugin, error) {
	if len(cmd.Config) > len(cmd.Plugin) {
		return nil, fmt.Errorf("%d --config values given for %d --plugin values", len(cmd.Config), len(cmd.Plugin))
	}

	plugins := make([]*ast.Plugin, len(cmd.Plugin))
	for i, name := range cmd.Plugin {
		plugins[i] = &ast.Plugin{Name: name}
		if i < len(cmd.Config) {
			plugins[i].Config = cmd.Config[i]
		}
	}
	return plugins, nil
}

// apply loads the ledger, runs its plugins and writes the result. The loaded files are
// returned so a watcher can follow them, even when the plugins reported errors.
func (cmd *ApplyCmd) apply(ctx *kong.Context, globals *Globals, extra []*ast.Plugin) ([]string, error) {
	runCtx, report := globals.run(ctx.Stderr, fmt.Sprintf("apply %s", filepath.Base(cmd.File.Filename)))
	defer report()

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	renderer := NewErrorRenderer(cmd.File.GetAbsoluteFilename(), sourceContent)

	result, err := cmd.File.Load(runCtx, loader.New(loader.WithFollowIncludes()))
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "parse error")
		return nil, NewCommandError(1)
	}

	tree := result.AST
	tree.Plugins = append(tree.Plugins, extra...)

	out, err := plugin.NewRunner(Registry()).Run(runCtx, tree)

	var runErr *plugin.RunError
	switch {
	case errors.As(err, &runErr):
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(runErr.Errors))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d plugin error(s) found", len(runErr.Errors)))
	case err != nil:
		printError(ctx.Stderr, err.Error())
		return result.Files(), NewCommandError(1)
	}

	// The output is the realized ledger and declares no plugins.
	out.Plugins = nil

	var opts []formatter.Option
	if cmd.CurrencyColumn > 0 {
		opts = append(opts, formatter.WithCurrencyColumn(cmd.CurrencyColumn))
	}

	var buf bytes.Buffer
	if err := formatter.New(opts...).Format(runCtx, out, &buf); err != nil {
		return result.Files(), err
	}

	if cmd.Write {
		if err := cmd.write(ctx, result, buf.Bytes()); err != nil {
			return result.Files(), err
		}
	} else if _, err := ctx.Stdout.Write(buf.Bytes()); err != nil {
		return result.Files(), err
	}

	if runErr != nil {
		return result.Files(), NewCommandError(1)
	}
	return result.Files(), nil
}

// write replaces the root file with data after confirmation. Ledgers with includes are
// refused, since the merged result cannot be split back into its files.
func (cmd *ApplyCmd) write(ctx *kong.Context, result *loader.Result, data []byte) error {
	if len(result.Includes) > 0 {
		return fmt.Errorf("cannot write %s: it includes %d other file(s)", result.Root, len(result.Includes))
	}

	if !cmd.Yes {
		ok, err := promptYesNo(fmt.Sprintf("Overwrite %s?", result.Root))
		if err != nil {
			return err
		}
		if !ok {
			printInfof(ctx.Stderr, "Left %s unchanged (use --yes to skip the question)", pathStyle.Render(result.Root))
			return nil
		}
	}

	info, err := os.Stat(result.Root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(result.Root, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", result.Root, err)
	}

	printSuccess(ctx.Stderr, fmt.Sprintf("Wrote %s", pathStyle.Render(result.Root)))
	return nil
}

// watch applies once and then again after every change to the loaded files, until ctx
// is cancelled.
func (cmd *ApplyCmd) watch(ctx context.Context, kctx *kong.Context, globals *Globals, extra []*ast.Plugin) error {
	logger := logging.New(kctx.Stderr, globals.Verbose)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	changes := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	watched := map[string]bool{}
	rerun := func() {
		files, err := cmd.apply(kctx, globals, extra)
		if err != nil && !isCommandError(err) {
			printError(kctx.Stderr, err.Error())
		}
		for _, file := range files {
			if watched[file] {
				continue
			}
			if err := watcher.Add(file); err != nil {
				logger.Warn("failed to watch file", zap.String("file", file), zap.Error(err))
				continue
			}
			watched[file] = true
		}
		if len(watched) == 0 {
			// Nothing loaded yet, follow at least the file that was asked for.
			if err := watcher.Add(cmd.File.GetAbsoluteFilename()); err == nil {
				watched[cmd.File.GetAbsoluteFilename()] = true
			}
		}
		printInfof(kctx.Stderr, "Watching %d file(s) for changes", len(watched))
	}

	rerun()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// Atomic saves replace the file, which drops it from the watch list.
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(watched, event.Name)
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})

		case <-changes:
			rerun()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func isCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}
