// Package manipulation implements the entry_manipulation plugin: a configurable pipeline
// of manipulators that rewrite transactions one at a time.
//
// Every transaction of a ledger runs through the manipulators in configuration order.
// A manipulator may split a transaction in two (transaction-splitter), distribute the
// amount of some postings onto others (posting-spreader, posting-filler), derive price
// and discount postings from metadata (posting-consolidator-original-price,
// posting-consolidator-discounter) or split one posting across zero-amount siblings
// (posting-splitter).
//
// Manipulators that move part of an expense onto a derived account, such as
// Expenses:Bread:Discount, also ask for the base account to be consolidated into a
// price account (Expenses:Bread:Price). The Orchestrator collects these requests and,
// once every transaction went through the pipeline, rewrites all postings and Open
// directives of the consolidated accounts, including those of untouched transactions.
package manipulation
