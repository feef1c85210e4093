// Package journals implements the journal ledger: journal creation, entry
// minting with a dense per-journal sequence, and entry transfer.
package journals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moodvault/journal_layer/internal/app/apperr"
	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/storage"
	"github.com/moodvault/journal_layer/pkg/logger"
)

// MintInput carries the caller-supplied fields of a new entry. Timestamp and
// sequence are assigned by the ledger, never by the caller.
type MintInput struct {
	MoodScore       uint8
	MoodText        string
	Tags            string
	Image           journal.Attachment
	Audio           journal.Attachment
	AudioDurationMS int64
}

// Service manages journals and their minted entries.
type Service struct {
	journals storage.JournalStore
	entries  storage.EntryStore
	emitter  events.Emitter
	log      *logger.Logger

	// now is the platform clock, millisecond resolution. Swappable in tests.
	now func() time.Time
}

// New constructs a journal ledger service.
func New(journalStore storage.JournalStore, entryStore storage.EntryStore, emitter events.Emitter, log *logger.Logger) *Service {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if log == nil {
		log = logger.NewDefault("journals")
	}
	return &Service{
		journals: journalStore,
		entries:  entryStore,
		emitter:  emitter,
		log:      log,
		now:      time.Now,
	}
}

// CreateJournal opens a new journal for owner with a zero entry count.
// An owner may hold any number of journals.
func (s *Service) CreateJournal(ctx context.Context, owner string) (journal.Journal, error) {
	if strings.TrimSpace(owner) == "" {
		return journal.Journal{}, fmt.Errorf("owner is required")
	}

	created, err := s.journals.CreateJournal(ctx, journal.Journal{Owner: owner})
	if err != nil {
		return journal.Journal{}, err
	}

	s.emitter.Emit(events.EventJournalCreated, map[string]string{
		"journal_id": created.ID,
		"owner":      created.Owner,
	})
	s.log.WithField("journal_id", created.ID).
		WithField("owner", created.Owner).
		Info("journal created")
	return created, nil
}

// GetJournal returns one journal by id.
func (s *Service) GetJournal(ctx context.Context, id string) (journal.Journal, error) {
	return s.journals.GetJournal(ctx, id)
}

// ListJournals returns journals, optionally filtered by owner.
func (s *Service) ListJournals(ctx context.Context, owner string) ([]journal.Journal, error) {
	return s.journals.ListJournals(ctx, owner)
}

// MintEntry mints an immutable entry into the caller's journal. Only the
// journal owner may mint; the entry is timestamped by the ledger clock and
// indexed under the post-increment journal count.
func (s *Service) MintEntry(ctx context.Context, caller, journalID string, in MintInput) (journal.Entry, error) {
	j, err := s.journals.GetJournal(ctx, journalID)
	if err != nil {
		return journal.Entry{}, err
	}
	if caller != j.Owner {
		return journal.Entry{}, apperr.ErrNotOwner
	}

	ts := s.now().UTC()
	timestampMS := ts.UnixMilli()

	minted, err := s.journals.AppendEntry(ctx, journal.Entry{
		JournalID:       journalID,
		Owner:           caller,
		TimestampMS:     timestampMS,
		DayIndex:        journal.DayIndexOf(timestampMS),
		MoodScore:       in.MoodScore,
		MoodText:        in.MoodText,
		Tags:            in.Tags,
		Image:           in.Image,
		Audio:           in.Audio,
		AudioDurationMS: in.AudioDurationMS,
		CreatedAt:       ts,
	})
	if err != nil {
		return journal.Entry{}, err
	}

	s.emitter.Emit(events.EventEntryMinted, map[string]string{
		"entry_id":   minted.ID,
		"journal_id": minted.JournalID,
		"owner":      minted.Owner,
		"seq":        strconv.FormatUint(minted.Seq, 10),
		"day_index":  strconv.FormatInt(minted.DayIndex, 10),
		"mood_score": strconv.Itoa(int(minted.MoodScore)),
	})
	s.log.WithField("entry_id", minted.ID).
		WithField("journal_id", minted.JournalID).
		WithField("seq", minted.Seq).
		Info("entry minted")
	return minted, nil
}

// GetEntry returns one entry by id.
func (s *Service) GetEntry(ctx context.Context, id string) (journal.Entry, error) {
	return s.entries.GetEntry(ctx, id)
}

// GetEntryID resolves a journal sequence number to the minted entry id.
func (s *Service) GetEntryID(ctx context.Context, journalID string, seq uint64) (string, error) {
	ref, err := s.entries.GetEntryRef(ctx, journalID, seq)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apperr.ErrEntryRefNotFound
		}
		return "", err
	}
	return ref.EntryID, nil
}

// GetEntryBySeq resolves a journal sequence number to the full entry.
func (s *Service) GetEntryBySeq(ctx context.Context, journalID string, seq uint64) (journal.Entry, error) {
	id, err := s.GetEntryID(ctx, journalID, seq)
	if err != nil {
		return journal.Entry{}, err
	}
	return s.entries.GetEntry(ctx, id)
}

// HasEntry reports whether a journal has an entry at seq. It never fails.
func (s *Service) HasEntry(ctx context.Context, journalID string, seq uint64) bool {
	_, err := s.entries.GetEntryRef(ctx, journalID, seq)
	return err == nil
}

// Count returns the journal's total minted entries.
func (s *Service) Count(ctx context.Context, journalID string) (uint64, error) {
	j, err := s.journals.GetJournal(ctx, journalID)
	if err != nil {
		return 0, err
	}
	return j.Count, nil
}

// ListEntryRefs returns the journal's sequence index in mint order.
func (s *Service) ListEntryRefs(ctx context.Context, journalID string) ([]journal.EntryRef, error) {
	return s.entries.ListEntryRefs(ctx, journalID)
}

// TransferEntry moves entry ownership to another address. Only the current
// owner may transfer; the entry's journal, sequence, and content are
// untouched, and any access policy stays keyed to the entry.
func (s *Service) TransferEntry(ctx context.Context, caller, entryID, to string) (journal.Entry, error) {
	if strings.TrimSpace(to) == "" {
		return journal.Entry{}, fmt.Errorf("recipient is required")
	}

	e, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return journal.Entry{}, err
	}
	if caller != e.Owner {
		return journal.Entry{}, apperr.ErrNotOwner
	}

	moved, err := s.entries.TransferEntry(ctx, entryID, to)
	if err != nil {
		return journal.Entry{}, err
	}

	s.emitter.Emit(events.EventEntryTransferred, map[string]string{
		"entry_id": moved.ID,
		"from":     caller,
		"to":       to,
	})
	s.log.WithField("entry_id", moved.ID).
		WithField("to", to).
		Info("entry transferred")
	return moved, nil
}
