package manipulation

import (
	"context"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

// Manipulator rewrites a single transaction.
type Manipulator interface {
	// Type is the configuration name of the manipulator, e.g. "posting-spreader".
	Type() string

	// Manipulate returns the transactions that replace txn, and the accounts to
	// consolidate because of them. txn itself is never modified.
	Manipulate(ctx context.Context, txn *ast.Transaction) (*Result, error)
}

// Result is the output of a manipulator for one transaction.
type Result struct {
	Transactions   []*ast.Transaction
	Consolidations []*ConsolidationData
}

func unchanged(txn *ast.Transaction) *Result {
	return &Result{Transactions: []*ast.Transaction{txn}}
}

// withPostings returns a copy of txn holding postings.
func withPostings(txn *ast.Transaction, postings []*ast.Posting) *ast.Transaction {
	c := txn.Clone()
	c.Postings = postings
	return c
}

// Options tune the behaviour of manipulators beyond their configuration.
type Options struct {
	// OnUndistributed is called for every source posting that matched no target. The
	// posting stays in the transaction unchanged.
	OnUndistributed func(txn *ast.Transaction, source *ast.Posting)
}
