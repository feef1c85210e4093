// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
	"github.com/moodvault/journal_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.JournalStore = (*Store)(nil)
var _ storage.EntryStore = (*Store)(nil)
var _ storage.PolicyStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return storage.ErrAlreadyExists
	}
	return err
}

// --- JournalStore -------------------------------------------------------------

func (s *Store) CreateJournal(ctx context.Context, j journal.Journal) (journal.Journal, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = j.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (id, owner, count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, j.ID, j.Owner, j.Count, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return journal.Journal{}, mapError(err)
	}
	return j, nil
}

func (s *Store) GetJournal(ctx context.Context, id string) (journal.Journal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, count, created_at, updated_at
		FROM journals
		WHERE id = $1
	`, id)

	var j journal.Journal
	if err := row.Scan(&j.ID, &j.Owner, &j.Count, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return journal.Journal{}, mapError(err)
	}
	return j, nil
}

func (s *Store) ListJournals(ctx context.Context, owner string) ([]journal.Journal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, count, created_at, updated_at
		FROM journals
		WHERE $1 = '' OR owner = $1
		ORDER BY created_at
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []journal.Journal
	for rows.Next() {
		var j journal.Journal
		if err := rows.Scan(&j.ID, &j.Owner, &j.Count, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

func (s *Store) AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return journal.Entry{}, err
	}
	defer tx.Rollback()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	// Bump the counter and claim its new value as the entry sequence in one
	// statement so concurrent mints on the same journal serialize on the row.
	row := tx.QueryRowContext(ctx, `
		UPDATE journals
		SET count = count + 1, updated_at = $2
		WHERE id = $1
		RETURNING count
	`, e.JournalID, e.CreatedAt)
	if err := row.Scan(&e.Seq); err != nil {
		return journal.Entry{}, mapError(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (
			id, journal_id, owner, seq, timestamp_ms, day_index,
			mood_score, mood_text, tags,
			image_url, image_mime, image_hash,
			audio_url, audio_mime, audio_hash, audio_duration_ms,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, e.ID, e.JournalID, e.Owner, e.Seq, e.TimestampMS, e.DayIndex,
		e.MoodScore, e.MoodText, e.Tags,
		e.Image.URL, e.Image.MimeType, e.Image.Hash,
		e.Audio.URL, e.Audio.MimeType, e.Audio.Hash, e.AudioDurationMS,
		e.CreatedAt)
	if err != nil {
		return journal.Entry{}, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return journal.Entry{}, err
	}
	return e, nil
}

const entryColumns = `
	id, journal_id, owner, seq, timestamp_ms, day_index,
	mood_score, mood_text, tags,
	image_url, image_mime, image_hash,
	audio_url, audio_mime, audio_hash, audio_duration_ms,
	created_at
`

func scanEntry(row interface{ Scan(...any) error }) (journal.Entry, error) {
	var e journal.Entry
	err := row.Scan(
		&e.ID, &e.JournalID, &e.Owner, &e.Seq, &e.TimestampMS, &e.DayIndex,
		&e.MoodScore, &e.MoodText, &e.Tags,
		&e.Image.URL, &e.Image.MimeType, &e.Image.Hash,
		&e.Audio.URL, &e.Audio.MimeType, &e.Audio.Hash, &e.AudioDurationMS,
		&e.CreatedAt,
	)
	return e, err
}

func (s *Store) GetEntry(ctx context.Context, id string) (journal.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE id = $1
	`, id)

	e, err := scanEntry(row)
	if err != nil {
		return journal.Entry{}, mapError(err)
	}
	return e, nil
}

func (s *Store) TransferEntry(ctx context.Context, entryID, newOwner string) (journal.Entry, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE entries SET owner = $2 WHERE id = $1
	`, entryID, newOwner)
	if err != nil {
		return journal.Entry{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return journal.Entry{}, storage.ErrNotFound
	}
	return s.GetEntry(ctx, entryID)
}

func (s *Store) GetEntryRef(ctx context.Context, journalID string, seq uint64) (journal.EntryRef, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT journal_id, seq, id, day_index
		FROM entries
		WHERE journal_id = $1 AND seq = $2
	`, journalID, seq)

	var ref journal.EntryRef
	if err := row.Scan(&ref.JournalID, &ref.Seq, &ref.EntryID, &ref.DayIndex); err != nil {
		return journal.EntryRef{}, mapError(err)
	}
	return ref, nil
}

func (s *Store) ListEntryRefs(ctx context.Context, journalID string) ([]journal.EntryRef, error) {
	if _, err := s.GetJournal(ctx, journalID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT journal_id, seq, id, day_index
		FROM entries
		WHERE journal_id = $1
		ORDER BY seq
	`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]journal.EntryRef, 0)
	for rows.Next() {
		var ref journal.EntryRef
		if err := rows.Scan(&ref.JournalID, &ref.Seq, &ref.EntryID, &ref.DayIndex); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

// --- PolicyStore ----------------------------------------------------------------

func (s *Store) CreatePolicy(ctx context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_policies (id, entry_id, owner, seal, authorized, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.EntryID, p.Owner, string(p.Seal), pq.Array(p.Authorized), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return policy.AccessPolicy{}, mapError(err)
	}
	return p, nil
}

func (s *Store) GetPolicy(ctx context.Context, entryID string) (policy.AccessPolicy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entry_id, owner, seal, authorized, created_at, updated_at
		FROM access_policies
		WHERE entry_id = $1
	`, entryID)

	var (
		p          policy.AccessPolicy
		seal       string
		authorized pq.StringArray
	)
	if err := row.Scan(&p.ID, &p.EntryID, &p.Owner, &seal, &authorized, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return policy.AccessPolicy{}, mapError(err)
	}
	p.Seal = policy.SealType(seal)
	p.Authorized = []string(authorized)
	return p, nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p policy.AccessPolicy) (policy.AccessPolicy, error) {
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE access_policies
		SET authorized = $2, updated_at = $3
		WHERE entry_id = $1
	`, p.EntryID, pq.Array(p.Authorized), p.UpdatedAt)
	if err != nil {
		return policy.AccessPolicy{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return policy.AccessPolicy{}, storage.ErrNotFound
	}
	return s.GetPolicy(ctx, p.EntryID)
}

func (s *Store) ListPolicies(ctx context.Context) ([]policy.AccessPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, owner, seal, authorized, created_at, updated_at
		FROM access_policies
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []policy.AccessPolicy
	for rows.Next() {
		var (
			p          policy.AccessPolicy
			seal       string
			authorized pq.StringArray
		)
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Owner, &seal, &authorized, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Seal = policy.SealType(seal)
		p.Authorized = []string(authorized)
		result = append(result, p)
	}
	return result, rows.Err()
}
