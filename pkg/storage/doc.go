// Package storage defines the usage ledger: one record of token accounting
// per finished chat completion exchange, plus the sentinel errors and account
// context helpers shared by the ledger backends.
//
// The ledger never stores prompts or completions. Backends live in the
// memory and postgres subpackages.
package storage
