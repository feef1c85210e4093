package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/moodvault/journal_layer/internal/app/domain/journal"
	"github.com/moodvault/journal_layer/internal/app/domain/policy"
	"github.com/moodvault/journal_layer/internal/app/storage"
	"github.com/moodvault/journal_layer/internal/platform/migrations"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)

	j, err := store.CreateJournal(ctx, journal.Journal{Owner: "alice"})
	if err != nil {
		t.Fatalf("create journal: %v", err)
	}

	e, err := store.AppendEntry(ctx, journal.Entry{
		JournalID:   j.ID,
		Owner:       "alice",
		TimestampMS: 1_700_000_000_000,
		DayIndex:    journal.DayIndexOf(1_700_000_000_000),
		MoodScore:   7,
		MoodText:    "calm",
	})
	if err != nil {
		t.Fatalf("append entry: %v", err)
	}
	if e.Seq != 1 {
		t.Fatalf("first entry seq = %d, want 1", e.Seq)
	}

	ref, err := store.GetEntryRef(ctx, j.ID, 1)
	if err != nil {
		t.Fatalf("get ref: %v", err)
	}
	if ref.EntryID != e.ID {
		t.Fatalf("ref entry = %q, want %q", ref.EntryID, e.ID)
	}

	p := policy.AccessPolicy{EntryID: e.ID, Owner: "alice", Seal: policy.SealPrivate, Authorized: []string{"bob"}}
	if _, err := store.CreatePolicy(ctx, p); err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if _, err := store.CreatePolicy(ctx, p); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetJournalNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, owner, count").WillReturnError(sql.ErrNoRows)

	store := New(db)
	if _, err := store.GetJournal(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePolicyMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO access_policies").WillReturnError(&pq.Error{Code: "23505"})

	store := New(db)
	_, err = store.CreatePolicy(context.Background(), policy.AccessPolicy{EntryID: "entry-1", Owner: "alice", Seal: policy.SealPublic})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAppendEntryRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE journals").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO entries").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	store := New(db)
	_, err = store.AppendEntry(context.Background(), journal.Entry{JournalID: "j1", Owner: "alice"})
	if err == nil {
		t.Fatalf("expected insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
