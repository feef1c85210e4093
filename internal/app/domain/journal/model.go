// Package journal defines the journal ledger domain model: per-user journals,
// minted mood entries, and the dense sequence index linking them.
package journal

import "time"

// MillisPerDay is the day-index divisor applied to millisecond timestamps.
const MillisPerDay = 86_400_000

// Journal is one user's diary container. Count only increases and is mutated
// exclusively by the owner's mint operation. Journals are never deleted.
type Journal struct {
	ID        string
	Owner     string
	Count     uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment is a piece of external content referenced by an entry. The URL,
// MIME type, and digest are recorded as supplied; format validation is the
// client's concern.
type Attachment struct {
	URL      string
	MimeType string
	Hash     []byte
}

// Entry is one immutable diary entry. Ownership may change hands (the entry
// is a transferable asset) but no other field is ever updated after mint.
type Entry struct {
	ID          string
	JournalID   string
	Owner       string
	Seq         uint64
	TimestampMS int64
	DayIndex    int64
	MoodScore   uint8
	MoodText    string
	// Tags is a comma-separated tag list, stored verbatim.
	Tags            string
	Image           Attachment
	Audio           Attachment
	AudioDurationMS int64
	CreatedAt       time.Time
}

// EntryRef is the secondary-index record attached to a journal, keyed by the
// post-increment counter value at mint time. Its lifetime is bound to the
// parent journal.
type EntryRef struct {
	JournalID string
	Seq       uint64
	EntryID   string
	DayIndex  int64
}

// DayIndexOf buckets a millisecond timestamp into a calendar-day index.
func DayIndexOf(timestampMS int64) int64 {
	return timestampMS / MillisPerDay
}
