// Package loader reads ledgers from disk.
//
// By default only the given file is parsed and its include directives are kept in the
// AST. With WithFollowIncludes, included files are loaded recursively, relative to the
// file that includes them, and merged into one AST:
//
//	result, err := loader.New(loader.WithFollowIncludes()).Load(ctx, "main.beancount")
//
// Directives of included files are appended after those of the including file, and
// plugin directives keep the order in which they were first seen. A file included twice,
// or in a cycle, is loaded once.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
	"github.com/robinvdvleuten/beancount-plugins/telemetry"
)

// Loader loads ledgers.
type Loader struct {
	// FollowIncludes loads and merges included files.
	FollowIncludes bool
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes loads included files and merges them into the result.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is a loaded ledger.
type Result struct {
	AST *ast.AST

	// Root is the absolute path of the loaded file.
	Root string

	// Includes are the absolute paths of the files merged into AST, in load order.
	Includes []string
}

// Files returns the root followed by every included file.
func (r *Result) Files() []string {
	return append([]string{r.Root}, r.Includes...)
}

// Load parses filename.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return l.LoadBytes(ctx, filename, data)
}

// LoadBytes parses data as the content of filename. Includes are resolved relative to
// the directory of filename.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start("loader.load " + filepath.Base(filename))
	defer timer.End()

	root, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	tree, err := parser.ParseBytes(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	result := &Result{AST: tree, Root: root}
	if !l.FollowIncludes {
		return result, nil
	}

	state := &loaderState{visited: map[string]bool{root: true}, result: result}
	includes := tree.Includes
	tree.Includes = nil

	if err := state.follow(ctx, root, includes); err != nil {
		return nil, err
	}
	return result, nil
}

// loaderState tracks the files merged so far.
type loaderState struct {
	visited map[string]bool
	result  *Result
}

// follow loads the includes of the file at path and merges them into the result.
func (s *loaderState) follow(ctx context.Context, path string, includes []*ast.Include) error {
	baseDir := filepath.Dir(path)

	for _, inc := range includes {
		if err := ctx.Err(); err != nil {
			return err
		}

		included := filepath.Clean(inc.Filename)
		if !filepath.IsAbs(included) {
			included = filepath.Join(baseDir, included)
		}
		if s.visited[included] {
			continue
		}
		s.visited[included] = true

		data, err := os.ReadFile(included)
		if err != nil {
			return fmt.Errorf("%s:%d: failed to read include %s: %w", path, inc.Pos.Line, inc.Filename, err)
		}
		tree, err := parser.ParseBytes(ctx, included, data)
		if err != nil {
			return err
		}

		s.merge(tree)
		s.result.Includes = append(s.result.Includes, included)

		if err := s.follow(ctx, included, tree.Includes); err != nil {
			return err
		}
	}

	return nil
}

func (s *loaderState) merge(tree *ast.AST) {
	merged := s.result.AST
	merged.Directives = append(merged.Directives, tree.Directives...)
	merged.Options = append(merged.Options, tree.Options...)

	for _, p := range tree.Plugins {
		if !hasPlugin(merged.Plugins, p) {
			merged.Plugins = append(merged.Plugins, p)
		}
	}
}

func hasPlugin(plugins []*ast.Plugin, p *ast.Plugin) bool {
	for _, existing := range plugins {
		if existing.Name == p.Name && existing.Config == p.Config {
			return true
		}
	}
	return false
}
