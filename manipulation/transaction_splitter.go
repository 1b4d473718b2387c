package manipulation

import (
	"context"
	"fmt"
	"regexp"

	"github.com/robinvdvleuten/beancount-plugins/ast"
)

const (
	TypeTransactionSplitter = "transaction-splitter"

	// MaxSplitIterations bounds the rounds a single transaction may be split in.
	MaxSplitIterations = 1000

	moveModeStay = "stay"
	moveModeMove = "move"
)

// TransactionSplitter moves a posting that happened on another date, such as a card
// payment booked days later, into a transaction of its own. The two transactions are
// linked through a transfer account:
//
//	2013-06-03 * "Shopping"
//	  Liabilities:DebitCard   -100 USD
//	    transaction-date: 2013-05-31
//	  Expenses:Food            100 USD
//
// In "stay" mode the card posting stays on 2013-06-03 against the transfer account, and
// the rest of the transaction moves to 2013-05-31. In "move" mode it is the other way
// around.
type TransactionSplitter struct {
	dateKey           string
	transferKey       string
	transferAccount   string
	account           *regexp.Regexp
	mode              string
	stayedNarration   *string
	movedNarration    *string
	movedNarrationKey string
}

var _ Manipulator = (*TransactionSplitter)(nil)

// NewTransactionSplitter creates a splitter. The account pattern is optional.
func NewTransactionSplitter(cfg TransactionSplitterConfig) (*TransactionSplitter, error) {
	if cfg.MetadataNameDate == "" {
		return nil, &MissingFieldError{Field: "metadata-name-date"}
	}
	if cfg.DatedPostingMoveMode == "" {
		return nil, &MissingFieldError{Field: "dated-posting-move-mode"}
	}

	s := &TransactionSplitter{
		dateKey:           cfg.MetadataNameDate,
		transferKey:       cfg.MetadataNameTransferAccount,
		transferAccount:   cfg.TransferAccount,
		mode:              cfg.DatedPostingMoveMode,
		stayedNarration:   cfg.StayedNarration,
		movedNarration:    cfg.MovedNarration,
		movedNarrationKey: cfg.MetadataNameMovedNarration,
	}

	if cfg.Account != "" {
		re, err := regexp.Compile(cfg.Account)
		if err != nil {
			return nil, &MissingFieldError{Field: "account", Reason: "is not a valid pattern: " + err.Error()}
		}
		s.account = re
	}

	return s, nil
}

func (s *TransactionSplitter) Type() string { return TypeTransactionSplitter }

// Manipulate splits txn until none of the resulting transactions has a posting left to
// move.
func (s *TransactionSplitter) Manipulate(_ context.Context, txn *ast.Transaction) (*Result, error) {
	if s.transferKey == "" && s.transferAccount == "" {
		return unchanged(txn), nil
	}

	var done []*ast.Transaction
	queue := []*ast.Transaction{txn}
	for i := 0; len(queue) > 0; i++ {
		if i >= MaxSplitIterations {
			return nil, &SplitLimitError{Limit: MaxSplitIterations}
		}

		current := queue[0]
		queue = queue[1:]

		split, err := s.split(current)
		if err != nil {
			return nil, err
		}
		if split == nil {
			done = append(done, current)
			continue
		}
		queue = append(queue, split...)
	}

	return &Result{Transactions: done}, nil
}

// split returns the two transactions txn splits into, or nil when no posting triggers
// a split.
func (s *TransactionSplitter) split(txn *ast.Transaction) ([]*ast.Transaction, error) {
	for i, p := range txn.Postings {
		split, err := s.splitAt(txn, i, p)
		if err != nil || split != nil {
			return split, err
		}
	}
	return nil, nil
}

func (s *TransactionSplitter) splitAt(txn *ast.Transaction, index int, p *ast.Posting) ([]*ast.Transaction, error) {
	v, ok := ast.Lookup(p.Metadata, s.dateKey)
	if !ok {
		return nil, nil
	}
	if s.account != nil && !s.account.MatchString(string(p.Account)) {
		return nil, nil
	}

	transfer, ok, err := s.transferAccountOf(p)
	if err != nil || !ok {
		return nil, err
	}

	if s.mode != moveModeStay && s.mode != moveModeMove {
		return nil, nil
	}
	if v == nil || v.Date == nil {
		return nil, &MissingFieldError{Field: s.dateKey, Account: p.Account, Reason: "must be a date"}
	}
	if p.Amount == nil {
		return nil, &MissingFieldError{Field: "units", Account: p.Account}
	}

	stayed, moved := s.narrations(txn, p)

	removed := []string{s.dateKey}
	if s.transferKey != "" {
		removed = append(removed, s.transferKey)
	}
	if s.movedNarrationKey != "" {
		removed = append(removed, s.movedNarrationKey)
	}
	main := p.Clone()
	main.Metadata = ast.Without(p.Metadata, removed...)

	others := make([]*ast.Posting, 0, len(txn.Postings))
	others = append(others, txn.Postings[:index]...)
	others = append(others, txn.Postings[index+1:]...)

	out := &ast.Posting{Account: transfer, Amount: p.Amount.Neg()}
	in := &ast.Posting{Account: transfer, Amount: ast.NewAmountFromDecimal(p.Amount.Number, p.Amount.Currency)}

	var original, moving []*ast.Posting
	if s.mode == moveModeStay {
		original = []*ast.Posting{main, out}
		moving = append(others, in)
	} else {
		original = append(others, in)
		moving = []*ast.Posting{main, out}
	}

	kept := withPostings(txn, original)
	kept.Narration = stayed

	created := withPostings(txn, moving)
	created.Date = v.Date
	created.Narration = moved

	return []*ast.Transaction{kept, created}, nil
}

func (s *TransactionSplitter) transferAccountOf(p *ast.Posting) (ast.Account, bool, error) {
	name := s.transferAccount
	if s.transferKey != "" {
		text, ok := ast.LookupText(p.Metadata, s.transferKey)
		if !ok {
			return "", false, nil
		}
		name = text
	}

	account, err := ast.NewAccount(name)
	if err != nil {
		return "", false, fmt.Errorf("invalid transfer account %q: %w", name, err)
	}
	return account, true, nil
}

func (s *TransactionSplitter) narrations(txn *ast.Transaction, p *ast.Posting) (stayed, moved string) {
	stayed, moved = txn.Narration, txn.Narration
	if s.stayedNarration != nil {
		stayed = *s.stayedNarration
	}
	if s.movedNarration != nil {
		moved = *s.movedNarration
	}
	if s.movedNarrationKey != "" {
		if text, ok := ast.LookupText(p.Metadata, s.movedNarrationKey); ok {
			moved = text
		}
	}
	return stayed, moved
}
