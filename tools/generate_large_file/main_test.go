package main

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-plugins/ast"
	"github.com/robinvdvleuten/beancount-plugins/cli"
	"github.com/robinvdvleuten/beancount-plugins/parser"
	"github.com/robinvdvleuten/beancount-plugins/plugin"
)

func TestGeneratedLedgerRunsThroughPlugins(t *testing.T) {
	var buf bytes.Buffer
	s := newGenerator(rand.New(rand.NewSource(1))).generate(&buf, 50_000)

	assert.Equal(t, buf.Len(), s.bytes)
	assert.True(t, s.bytes >= 50_000)

	tree, err := parser.ParseBytes(context.Background(), "large.beancount", buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, len(plugins), len(tree.Plugins))

	transactions := 0
	for _, d := range tree.Directives {
		if _, ok := d.(*ast.Transaction); ok {
			transactions++
		}
	}
	assert.Equal(t, s.transactions, transactions)

	out, err := plugin.NewRunner(cli.Registry()).Run(context.Background(), tree)
	var runErr *plugin.RunError
	if err != nil {
		assert.True(t, errors.As(err, &runErr), "unexpected fatal error: %v", err)
	}
	assert.True(t, len(out.Directives) > len(tree.Directives))
}

func TestGeneratorIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	newGenerator(rand.New(rand.NewSource(7))).generate(&a, 5_000)
	newGenerator(rand.New(rand.NewSource(7))).generate(&b, 5_000)

	assert.Equal(t, a.String(), b.String())
}
