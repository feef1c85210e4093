// Package storage declares the persistence interfaces for the journal ledger
// and the access policy registry.
package storage

import (
	"context"
	"errors"

	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
)

// ErrNotFound is returned on a lookup miss for a required key.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when a create collides with an existing key.
var ErrAlreadyExists = errors.New("record already exists")

// JournalStore persists journals and owns the per-journal mint counter.
type JournalStore interface {
	CreateJournal(ctx context.Context, j journal.Journal) (journal.Journal, error)
	GetJournal(ctx context.Context, id string) (journal.Journal, error)
	ListJournals(ctx context.Context, owner string) ([]journal.Journal, error)

	// AppendEntry atomically bumps the journal counter, assigns the new
	// counter value as the entry sequence, and inserts the entry together
	// with its EntryRef. Either everything is applied or nothing is.
	AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// EntryStore reads minted entries and the sequence index, and moves entry
// ownership.
type EntryStore interface {
	GetEntry(ctx context.Context, id string) (journal.Entry, error)
	TransferEntry(ctx context.Context, entryID, newOwner string) (journal.Entry, error)

	GetEntryRef(ctx context.Context, journalID string, seq uint64) (journal.EntryRef, error)
	ListEntryRefs(ctx context.Context, journalID string) ([]journal.EntryRef, error)
}

// PolicyStore persists access policies keyed by entry identifier.
type PolicyStore interface {
	// CreatePolicy inserts a policy; ErrAlreadyExists when the entry already
	// has one.
	CreatePolicy(ctx context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error)
	GetPolicy(ctx context.Context, entryID string) (policy.AccessPolicy, error)
	UpdatePolicy(ctx context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error)
	ListPolicies(ctx context.Context) ([]policy.AccessPolicy, error)
}
