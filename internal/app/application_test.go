package app

import (
	"context"
	"testing"

	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/services/journals"
)

func TestNewDefaultsToMemoryStores(t *testing.T) {
	application, err := New(Stores{}, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if err := application.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer application.Stop(ctx)

	j, err := application.Journals.CreateJournal(ctx, "alice")
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}
	if _, err := application.Policies.Create(ctx, "entry-x", "alice", true); err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if j.Owner != "alice" {
		t.Fatalf("owner = %q", j.Owner)
	}
}

func TestSharedEventFeed(t *testing.T) {
	eventLog := events.NewLog(16)
	application, err := New(Stores{}, eventLog, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	j, err := application.Journals.CreateJournal(ctx, "alice")
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}
	minted, err := application.Journals.MintEntry(ctx, "alice", j.ID, journals.MintInput{MoodScore: 5})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := application.Policies.Create(ctx, minted.ID, "alice", false); err != nil {
		t.Fatalf("create policy: %v", err)
	}

	recent := application.Events.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("feed has %d events, want 3", len(recent))
	}
	want := []events.Type{events.EventPolicyCreated, events.EventEntryMinted, events.EventJournalCreated}
	for i, typ := range want {
		if recent[i].Type != typ {
			t.Fatalf("event %d = %s, want %s", i, recent[i].Type, typ)
		}
	}
}
