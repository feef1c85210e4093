package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
	"github.com/moodvault/journal_layer/internal/app/storage"
)

func TestAppendEntryAssignsSequence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	j, err := store.CreateJournal(ctx, journal.Journal{Owner: "alice"})
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}
	if j.Count != 0 {
		t.Fatalf("new journal count = %d, want 0", j.Count)
	}

	first, err := store.AppendEntry(ctx, journal.Entry{JournalID: j.ID, Owner: "alice", TimestampMS: 1_700_000_000_000})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	second, err := store.AppendEntry(ctx, journal.Entry{JournalID: j.ID, Owner: "alice", TimestampMS: 1_700_000_100_000})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("sequences = %d, %d, want 1, 2", first.Seq, second.Seq)
	}

	j, err = store.GetJournal(ctx, j.ID)
	if err != nil {
		t.Fatalf("get journal: %v", err)
	}
	if j.Count != 2 {
		t.Fatalf("journal count = %d, want 2", j.Count)
	}

	ref, err := store.GetEntryRef(ctx, j.ID, 2)
	if err != nil {
		t.Fatalf("get ref: %v", err)
	}
	if ref.EntryID != second.ID {
		t.Fatalf("ref entry = %q, want %q", ref.EntryID, second.ID)
	}
}

func TestAppendEntryUnknownJournal(t *testing.T) {
	store := NewStore()
	_, err := store.AppendEntry(context.Background(), journal.Entry{JournalID: "missing"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryRefLookupMiss(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	j, err := store.CreateJournal(ctx, journal.Journal{Owner: "alice"})
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}
	if _, err := store.GetEntryRef(ctx, j.ID, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for seq 1, got %v", err)
	}
}

func TestTransferEntry(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	j, _ := store.CreateJournal(ctx, journal.Journal{Owner: "alice"})
	e, err := store.AppendEntry(ctx, journal.Entry{JournalID: j.ID, Owner: "alice"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	moved, err := store.TransferEntry(ctx, e.ID, "bob")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved.Owner != "bob" {
		t.Fatalf("owner = %q, want bob", moved.Owner)
	}
	if moved.Seq != e.Seq {
		t.Fatalf("transfer changed seq: %d != %d", moved.Seq, e.Seq)
	}
}

func TestCreatePolicyDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	p := policy.AccessPolicy{EntryID: "entry-1", Owner: "alice", Seal: policy.SealPrivate}
	if _, err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreatePolicy(ctx, p); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPolicyCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, err := store.CreatePolicy(ctx, policy.AccessPolicy{
		EntryID:    "entry-1",
		Owner:      "alice",
		Seal:       policy.SealPrivate,
		Authorized: []string{"bob"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating the returned slice must not leak into the store.
	created.Authorized[0] = "mallory"

	got, err := store.GetPolicy(ctx, "entry-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Authorized[0] != "bob" {
		t.Fatalf("stored policy mutated through returned slice: %v", got.Authorized)
	}
}

func TestUpdatePolicyPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	created, _ := store.CreatePolicy(ctx, policy.AccessPolicy{EntryID: "entry-1", Owner: "alice", Seal: policy.SealPrivate})

	created.Authorized = []string{"bob", "carol"}
	updated, err := store.UpdatePolicy(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update changed policy ID")
	}
	if len(updated.Authorized) != 2 {
		t.Fatalf("authorized = %v, want two grantees", updated.Authorized)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("UpdatedAt precedes CreatedAt")
	}
}
