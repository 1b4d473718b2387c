package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/sebdah/goldie/v2"

	"github.com/robinvdvleuten/beancount-plugins/loader"
)

// run parses args as a command line and runs the selected command.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var cli struct {
		Commands
	}

	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cli,
		kong.Name("beancount-plugins"),
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit with code %d", code) }),
		kong.Bind(&cli.Globals),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run()
	return stdout.String(), stderr.String(), err
}

func writeLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.beancount")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func assertExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr), "expected a CommandError, got %v", err)
	assert.Equal(t, code, cmdErr.ExitCode())
}

func TestApplyGolden(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "account_replacer",
		},
		{
			name: "entry_manipulation",
		},
		{
			name: "balance_pad_creator",
			args: []string{
				"--plugin", "balance_pad_creator",
				"--config", "{'account': 'Assets:Bank', 'metadata-name-balance-unit': 'balance'}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"apply", filepath.Join("testdata", tt.name+".beancount")}, tt.args...)
			stdout, _, err := run(t, args...)
			assert.NoError(t, err)

			goldie.New(t).Assert(t, tt.name, []byte(stdout))
		})
	}
}

func TestApplyReportsPluginErrors(t *testing.T) {
	path := writeLedger(t, `plugin "no_such_plugin"

2016-05-31 open Assets:Bank
`)

	stdout, stderr, err := run(t, "apply", path)
	assertExitCode(t, err, 1)

	assert.Equal(t, "2016-05-31 open Assets:Bank\n", stdout)
	assert.Contains(t, stderr, `unknown plugin "no_such_plugin"`)
	assert.Contains(t, stderr, `   plugin "no_such_plugin"`)
	assert.Contains(t, stderr, "1 plugin error(s) found")
}

func TestApplyReportsParseErrors(t *testing.T) {
	path := writeLedger(t, "2016-05-31 open\n")

	stdout, stderr, err := run(t, "apply", path)
	assertExitCode(t, err, 1)

	assert.Equal(t, "", stdout)
	assert.Contains(t, stderr, "2016-05-31 open")
	assert.Contains(t, stderr, "^")
	assert.Contains(t, stderr, "parse error")
}

func TestApplyFatalPluginError(t *testing.T) {
	path := writeLedger(t, `plugin "balance_pad_creator" "{'metadata-name-balance-unit': 'balance'}"

2016-05-31 open Assets:Bank
`)

	stdout, stderr, err := run(t, "apply", path)
	assertExitCode(t, err, 1)

	assert.Equal(t, "", stdout)
	assert.Contains(t, stderr, `plugin balance_pad_creator: missing field "account"`)
}

func TestApplyWrite(t *testing.T) {
	input, err := os.ReadFile(filepath.Join("testdata", "account_replacer.beancount"))
	assert.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join("testdata", "account_replacer.golden"))
	assert.NoError(t, err)

	path := writeLedger(t, string(input))

	stdout, stderr, err := run(t, "apply", path, "--write", "--yes")
	assert.NoError(t, err)
	assert.Equal(t, "", stdout)
	assert.Contains(t, stderr, "Wrote")

	written, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, string(expected), string(written))
}

func TestApplyWriteRefusesIncludes(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.beancount"), []byte("2016-05-31 open Assets:Bank\n"), 0o644))
	path := filepath.Join(dir, "main.beancount")
	assert.NoError(t, os.WriteFile(path, []byte(`include "accounts.beancount"`+"\n"), 0o644))

	_, _, err := run(t, "apply", path, "--write", "--yes")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "includes 1 other file(s)")

	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, `include "accounts.beancount"`+"\n", string(content))
}

func TestApplyFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.beancount"), []byte("2016-05-31 open Expenses:Food\n"), 0o644))
	path := filepath.Join(dir, "main.beancount")
	assert.NoError(t, os.WriteFile(path, []byte(`include "accounts.beancount"
plugin "account_replacer" "{'replace-rules': [{'replace-from': 'Food', 'replace-to': 'Groceries'}]}"
`), 0o644))

	stdout, _, err := run(t, "apply", path)
	assert.NoError(t, err)
	assert.Equal(t, "2016-05-31 open Expenses:Groceries\n", stdout)
}

func TestApplyWriteAndWatch(t *testing.T) {
	content := "2016-05-31 open Assets:Bank\n"
	path := writeLedger(t, content)

	_, _, err := run(t, "apply", path, "--write", "--yes", "--watch")
	assert.EqualError(t, err, "--write and --watch cannot be used together")

	written, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, content, string(written))
}

func TestApplyConfigWithoutPlugin(t *testing.T) {
	path := writeLedger(t, "2016-05-31 open Assets:Bank\n")

	_, _, err := run(t, "apply", path, "--config", "{}")
	assert.EqualError(t, err, "1 --config values given for 0 --plugin values")
}

func TestExtraPlugins(t *testing.T) {
	cmd := &ApplyCmd{
		Plugin: []string{"account_replacer", "balance_pad_creator"},
		Config: []string{"{'replace-rules': []}"},
	}

	plugins, err := cmd.extraPlugins()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(plugins))
	assert.Equal(t, "account_replacer", plugins[0].Name)
	assert.Equal(t, "{'replace-rules': []}", plugins[0].Config)
	assert.Equal(t, "balance_pad_creator", plugins[1].Name)
	assert.Equal(t, "", plugins[1].Config)
}

func TestFormatCmd(t *testing.T) {
	t.Run("Golden", func(t *testing.T) {
		stdout, _, err := run(t, "format", filepath.Join("testdata", "account_replacer.beancount"))
		assert.NoError(t, err)

		goldie.New(t).Assert(t, "format", []byte(stdout))
	})

	t.Run("CurrencyColumn", func(t *testing.T) {
		path := writeLedger(t, `2016-06-01 * "Bread"
  Assets:Bank  -1170 HUF
  Expenses:Bread  1170 HUF
`)

		stdout, _, err := run(t, "format", path, "--currency-column", "30")
		assert.NoError(t, err)
		assert.Equal(t, `2016-06-01 * "Bread"
  Assets:Bank            -1170 HUF
  Expenses:Bread          1170 HUF
`, stdout)
	})

	t.Run("Debug", func(t *testing.T) {
		stdout, _, err := run(t, "format", filepath.Join("testdata", "account_replacer.beancount"), "--debug")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Expenses:Food:Bread")
		assert.Contains(t, stdout, "account_replacer")
	})

	t.Run("ParseError", func(t *testing.T) {
		path := writeLedger(t, "2016-05-31 open\n")

		_, stderr, err := run(t, "format", path)
		assertExitCode(t, err, 1)
		assert.Contains(t, stderr, "parse error")
	})
}

func TestPluginsCmd(t *testing.T) {
	stdout, _, err := run(t, "plugins")
	assert.NoError(t, err)
	assert.Equal(t, "account_replacer\nbalance_pad_creator\nentry_manipulation\nutility_bill\n", stdout)
}

func TestDoctorLexCmd(t *testing.T) {
	path := writeLedger(t, "2016-05-31 open Assets:Bank\n")

	stdout, _, err := run(t, "doctor", "lex", path)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, []string{
		`DATE       1:1    "2016-05-31"`,
		`open       1:12    "open"`,
		`ACCOUNT    1:17    "Assets:Bank"`,
	}, lines)
}

func TestFileOrStdin(t *testing.T) {
	var f FileOrStdin
	assert.NoError(t, f.readStdin(strings.NewReader("2016-05-31 open Assets:Bank\n")))

	assert.True(t, f.IsStdin())
	assert.Equal(t, "<stdin>", f.GetAbsoluteFilename())

	source, err := f.GetSourceContent()
	assert.NoError(t, err)
	assert.Equal(t, "2016-05-31 open Assets:Bank\n", string(source))

	result, err := f.Load(context.Background(), loader.New())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.AST.Directives))
}

func TestPromptYesNo(t *testing.T) {
	t.Run("NonTTYReturnsFalse", func(t *testing.T) {
		if isTerminal(os.Stdin) {
			t.Skip("stdin is a terminal")
		}

		ok, err := promptYesNo("Overwrite?")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("BuffersAreNotTerminals", func(t *testing.T) {
		assert.False(t, isTerminal(&bytes.Buffer{}))
	})
}
