package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/parser"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func accounts(tree *ast.AST) []string {
	var out []string
	for _, d := range tree.Directives {
		if open, ok := d.(*ast.Open); ok {
			out = append(out, string(open.Account))
		}
	}
	return out
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	main := write(t, dir, "main.beancount", `include "accounts.beancount"

2024-01-02 open Assets:Checking USD
`)
	root, err := filepath.Abs(main)
	assert.NoError(t, err)

	result, err := New().Load(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, root, result.Root)
	assert.Equal(t, []string{"Assets:Checking"}, accounts(result.AST))
	assert.Equal(t, 1, len(result.AST.Includes))
	assert.Equal(t, "accounts.beancount", result.AST.Includes[0].Filename)
	assert.Equal(t, []string{root}, result.Files())
}

func TestLoadFollowIncludes(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "accounts.beancount", `plugin "account_replacer" "{'replace-rules': []}"
include "nested/savings.beancount"

2024-01-01 open Assets:Savings USD
`)
	write(t, dir, "nested/savings.beancount", `plugin "entry_manipulation"
include "../accounts.beancount"

2024-01-01 open Assets:Savings:Emergency USD
`)
	main := write(t, dir, "main.beancount", `plugin "entry_manipulation"
include "accounts.beancount"
include "accounts.beancount"

2024-01-02 open Assets:Checking USD
`)

	result, err := New(WithFollowIncludes()).Load(context.Background(), main)
	assert.NoError(t, err)

	assert.Equal(t, []string{"Assets:Checking", "Assets:Savings", "Assets:Savings:Emergency"}, accounts(result.AST))
	assert.Equal(t, 0, len(result.AST.Includes))
	assert.Equal(t, 2, len(result.AST.Plugins))
	assert.Equal(t, "entry_manipulation", result.AST.Plugins[0].Name)
	assert.Equal(t, "account_replacer", result.AST.Plugins[1].Name)
	assert.Equal(t, []string{
		filepath.Join(dir, "accounts.beancount"),
		filepath.Join(dir, "nested", "savings.beancount"),
	}, result.Includes)
}

func TestLoadBytes(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "accounts.beancount", "2024-01-01 open Assets:Savings USD\n")

	result, err := New(WithFollowIncludes()).LoadBytes(context.Background(), filepath.Join(dir, "stdin.beancount"), []byte(`include "accounts.beancount"`))
	assert.NoError(t, err)
	assert.Equal(t, []string{"Assets:Savings"}, accounts(result.AST))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("MissingFile", func(t *testing.T) {
		_, err := New().Load(context.Background(), filepath.Join(dir, "missing.beancount"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("MissingInclude", func(t *testing.T) {
		main := write(t, dir, "main.beancount", `include "missing.beancount"`)
		_, err := New(WithFollowIncludes()).Load(context.Background(), main)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Contains(t, err.Error(), "main.beancount:1: failed to read include missing.beancount")
	})

	t.Run("SyntaxErrorInInclude", func(t *testing.T) {
		write(t, dir, "broken.beancount", "2024-01-01 open\n")
		main := write(t, dir, "main.beancount", `include "broken.beancount"`)
		_, err := New(WithFollowIncludes()).Load(context.Background(), main)

		var perr *parser.ParseError
		assert.True(t, errors.As(err, &perr))
		assert.Equal(t, filepath.Join(dir, "broken.beancount"), perr.Pos.Filename)
	})

	t.Run("Cancelled", func(t *testing.T) {
		main := write(t, dir, "main.beancount", `include "accounts.beancount"`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(WithFollowIncludes()).Load(ctx, main)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
