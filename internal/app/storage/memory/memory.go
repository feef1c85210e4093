// Package memory provides an in-memory implementation of the storage
// interfaces. It is the default backend when no database is configured and
// the workhorse of the test suite.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
	"github.com/moodvault/journal_layer/internal/app/storage"
)

// Store keeps all records in maps behind a single RWMutex. Every mutating
// method holds the write lock for its whole critical section, which gives
// the ledger the single-writer discipline the services rely on.
type Store struct {
	mu sync.RWMutex

	journals map[string]journal.Journal
	entries  map[string]journal.Entry
	// refs indexes entries by journal ID and sequence number.
	refs     map[string]map[uint64]journal.EntryRef
	policies map[string]policy.AccessPolicy
}

var (
	_ storage.JournalStore = (*Store)(nil)
	_ storage.EntryStore   = (*Store)(nil)
	_ storage.PolicyStore  = (*Store)(nil)
)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		journals: make(map[string]journal.Journal),
		entries:  make(map[string]journal.Entry),
		refs:     make(map[string]map[uint64]journal.EntryRef),
		policies: make(map[string]policy.AccessPolicy),
	}
}

func (s *Store) CreateJournal(_ context.Context, j journal.Journal) (journal.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if _, ok := s.journals[j.ID]; ok {
		return journal.Journal{}, storage.ErrAlreadyExists
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = j.CreatedAt
	s.journals[j.ID] = j
	s.refs[j.ID] = make(map[uint64]journal.EntryRef)
	return j, nil
}

func (s *Store) GetJournal(_ context.Context, id string) (journal.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.journals[id]
	if !ok {
		return journal.Journal{}, storage.ErrNotFound
	}
	return j, nil
}

func (s *Store) ListJournals(_ context.Context, owner string) ([]journal.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		if owner == "" || j.Owner == owner {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (s *Store) AppendEntry(_ context.Context, e journal.Entry) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journals[e.JournalID]
	if !ok {
		return journal.Entry{}, storage.ErrNotFound
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.entries[e.ID]; ok {
		return journal.Entry{}, storage.ErrAlreadyExists
	}

	j.Count++
	e.Seq = j.Count
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	j.UpdatedAt = e.CreatedAt

	e.Image.Hash = cloneBytes(e.Image.Hash)
	e.Audio.Hash = cloneBytes(e.Audio.Hash)

	s.journals[j.ID] = j
	s.entries[e.ID] = e
	s.refs[j.ID][e.Seq] = journal.EntryRef{
		JournalID: j.ID,
		Seq:       e.Seq,
		EntryID:   e.ID,
		DayIndex:  e.DayIndex,
	}
	return cloneEntry(e), nil
}

func (s *Store) GetEntry(_ context.Context, id string) (journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return journal.Entry{}, storage.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *Store) TransferEntry(_ context.Context, entryID, newOwner string) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return journal.Entry{}, storage.ErrNotFound
	}
	e.Owner = newOwner
	s.entries[entryID] = e
	return cloneEntry(e), nil
}

func (s *Store) GetEntryRef(_ context.Context, journalID string, seq uint64) (journal.EntryRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs, ok := s.refs[journalID]
	if !ok {
		return journal.EntryRef{}, storage.ErrNotFound
	}
	ref, ok := refs[seq]
	if !ok {
		return journal.EntryRef{}, storage.ErrNotFound
	}
	return ref, nil
}

func (s *Store) ListEntryRefs(_ context.Context, journalID string) ([]journal.EntryRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs, ok := s.refs[journalID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]journal.EntryRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Seq < out[k].Seq })
	return out, nil
}

func (s *Store) CreatePolicy(_ context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[p.EntryID]; ok {
		return policy.AccessPolicy{}, storage.ErrAlreadyExists
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	p.Authorized = cloneStrings(p.Authorized)
	s.policies[p.EntryID] = p
	return clonePolicy(p), nil
}

func (s *Store) GetPolicy(_ context.Context, entryID string) (policy.AccessPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[entryID]
	if !ok {
		return policy.AccessPolicy{}, storage.ErrNotFound
	}
	return clonePolicy(p), nil
}

func (s *Store) UpdatePolicy(_ context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.policies[p.EntryID]
	if !ok {
		return policy.AccessPolicy{}, storage.ErrNotFound
	}
	p.ID = cur.ID
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Authorized = cloneStrings(p.Authorized)
	s.policies[p.EntryID] = p
	return clonePolicy(p), nil
}

func (s *Store) ListPolicies(_ context.Context) ([]policy.AccessPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]policy.AccessPolicy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, clonePolicy(p))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func cloneEntry(e journal.Entry) journal.Entry {
	e.Image.Hash = cloneBytes(e.Image.Hash)
	e.Audio.Hash = cloneBytes(e.Audio.Hash)
	return e
}

func clonePolicy(p policy.AccessPolicy) policy.AccessPolicy {
	p.Authorized = cloneStrings(p.Authorized)
	return p
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
