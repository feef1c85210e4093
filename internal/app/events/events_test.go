package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEmitAssignsMonotonicSequence(t *testing.T) {
	log := NewLog(8)

	log.Emit(EventJournalCreated, map[string]string{"journal_id": "j1"})
	log.Emit(EventEntryMinted, map[string]string{"entry_id": "e1"})
	log.Emit(EventEntryMinted, map[string]string{"entry_id": "e2"})

	recent := log.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("recent returned %d events, want 3", len(recent))
	}
	// Reverse chronological order.
	if recent[0].Seq != 3 || recent[1].Seq != 2 || recent[2].Seq != 1 {
		t.Fatalf("sequences = %d, %d, %d", recent[0].Seq, recent[1].Seq, recent[2].Seq)
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	log := NewLog(2)
	log.Emit(EventJournalCreated, nil)
	log.Emit(EventEntryMinted, nil)
	log.Emit(EventAccessGranted, nil)

	recent := log.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("buffer holds %d events, want 2", len(recent))
	}
	if recent[1].Type != EventEntryMinted {
		t.Fatalf("oldest retained event = %s, want %s", recent[1].Type, EventEntryMinted)
	}
	if log.Count() != 2 {
		t.Fatalf("count = %d, want 2", log.Count())
	}
}

func TestRecentByType(t *testing.T) {
	log := NewLog(8)
	log.Emit(EventEntryMinted, map[string]string{"entry_id": "e1"})
	log.Emit(EventAccessGranted, map[string]string{"grantee": "bob"})
	log.Emit(EventEntryMinted, map[string]string{"entry_id": "e2"})

	minted := log.RecentByType(EventEntryMinted, 10)
	if len(minted) != 2 {
		t.Fatalf("got %d minted events, want 2", len(minted))
	}
	if minted[0].Attrs["entry_id"] != "e2" {
		t.Fatalf("newest minted event = %v", minted[0].Attrs)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	log := NewLog(8)

	var seen []Event
	unsubscribe := log.Subscribe(func(e Event) { seen = append(seen, e) })

	log.Emit(EventPolicyCreated, nil)
	unsubscribe()
	log.Emit(EventAccessRevoked, nil)

	if len(seen) != 1 {
		t.Fatalf("handler saw %d events, want 1", len(seen))
	}
	if seen[0].Type != EventPolicyCreated {
		t.Fatalf("handler saw %s", seen[0].Type)
	}
}

func TestFileSinkWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	log := NewLog(8)
	sink.Attach(log)

	log.Emit(EventJournalCreated, map[string]string{"journal_id": "j1", "owner": "alice"})
	log.Emit(EventEntryMinted, map[string]string{"entry_id": "e1"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open sink file: %v", err)
	}
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, e)
	}
	if len(lines) != 2 {
		t.Fatalf("sink wrote %d lines, want 2", len(lines))
	}
	if lines[0].Attrs["owner"] != "alice" {
		t.Fatalf("first line attrs = %v", lines[0].Attrs)
	}
}

func TestNilFileSinkIsNoop(t *testing.T) {
	sink, err := NewFileSink("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if sink != nil {
		t.Fatalf("expected nil sink for empty path")
	}
	// Methods on the nil sink must be safe.
	detach := sink.Attach(NewLog(4))
	detach()
	if err := sink.Write(Event{}); err != nil {
		t.Fatalf("nil sink write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("nil sink close: %v", err)
	}
}
