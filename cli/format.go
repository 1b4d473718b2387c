package cli

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/beancount-plugins/formatter"
	"github.com/robinvdvleuten/beancount-plugins/loader"
)

type FormatCmd struct {
	File           FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	CurrencyColumn int         `help:"Column at which numbers end (auto-calculated from content if 0)." default:"0" env:"BEANCOUNT_PLUGINS_CURRENCY_COLUMN"`
	Indentation    int         `help:"Number of spaces before postings and metadata." default:"2"`
	Debug          bool        `help:"Print the parsed entries instead of formatting them."`
}

func (cmd *FormatCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx, report := globals.run(ctx.Stderr, fmt.Sprintf("format %s", filepath.Base(cmd.File.Filename)))
	defer report()

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	result, err := cmd.File.Load(runCtx, loader.New())
	if err != nil {
		renderer := NewErrorRenderer(cmd.File.GetAbsoluteFilename(), sourceContent)
		_, _ = fmt.Fprint(ctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "parse error")
		return NewCommandError(1)
	}

	if cmd.Debug {
		repr.New(ctx.Stdout, repr.Indent("  "), repr.OmitEmpty(true)).Println(result.AST)
		return nil
	}

	opts := []formatter.Option{formatter.WithIndentation(cmd.Indentation)}
	if cmd.CurrencyColumn > 0 {
		opts = append(opts, formatter.WithCurrencyColumn(cmd.CurrencyColumn))
	}

	return formatter.New(opts...).Format(runCtx, result.AST, ctx.Stdout)
}
