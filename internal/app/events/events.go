// Package events provides the structured event feed consumed by off-chain
// indexers. Every state change in the ledger and the policy registry emits
// exactly one event; the feed assigns each a monotonic sequence number.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Type classifies a ledger or registry event.
type Type string

const (
	EventJournalCreated   Type = "journal.created"
	EventEntryMinted      Type = "entry.minted"
	EventEntryTransferred Type = "entry.transferred"
	EventPolicyCreated    Type = "policy.created"
	EventAccessGranted    Type = "access.granted"
	EventAccessRevoked    Type = "access.revoked"
)

// Event is one emitted state change. Attrs carries the identifiers an
// indexer needs to reconstruct the change without reading the store.
type Event struct {
	Seq       uint64            `json:"seq"`
	Type      Type              `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// String returns the JSON encoding, used by log sinks.
func (e Event) String() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// Handler processes events as they are emitted.
type Handler func(Event)

// Emitter is the interface services publish through.
type Emitter interface {
	// Emit records an event, assigning its sequence number.
	Emit(eventType Type, attrs map[string]string)

	// Subscribe registers a handler for subsequent events. The returned
	// function unsubscribes it.
	Subscribe(handler Handler) func()

	// Recent returns up to n events in reverse chronological order.
	Recent(n int) []Event

	// RecentByType returns up to n recent events of one type.
	RecentByType(eventType Type, n int) []Event
}

// Log is a thread-safe ring buffer of emitted events.
type Log struct {
	mu       sync.RWMutex
	events   []Event
	size     int
	head     int
	count    int
	seq      uint64
	handlers []handlerEntry
	nextID   int64
}

type handlerEntry struct {
	id      int64
	handler Handler
}

var _ Emitter = (*Log)(nil)

// NewLog creates an event log retaining the most recent size events.
func NewLog(size int) *Log {
	if size <= 0 {
		size = 1024
	}
	return &Log{
		events: make([]Event, size),
		size:   size,
	}
}

// Emit appends an event and notifies subscribers.
func (l *Log) Emit(eventType Type, attrs map[string]string) {
	l.mu.Lock()
	l.seq++
	event := Event{
		Seq:       l.seq,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Attrs:     attrs,
	}

	l.events[l.head] = event
	l.head = (l.head + 1) % l.size
	if l.count < l.size {
		l.count++
	}

	handlers := make([]handlerEntry, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	// Notify outside the lock so a slow sink cannot stall emitters.
	for _, h := range handlers {
		h.handler(event)
	}
}

// Subscribe registers a handler for every subsequent event.
func (l *Log) Subscribe(handler Handler) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.handlers = append(l.handlers, handlerEntry{id: id, handler: handler})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, h := range l.handlers {
			if h.id == id {
				l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
				return
			}
		}
	}
}

// Recent returns the most recent n events in reverse chronological order.
func (l *Log) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || l.count == 0 {
		return nil
	}
	if n > l.count {
		n = l.count
	}

	result := make([]Event, n)
	for i := 0; i < n; i++ {
		idx := (l.head - 1 - i + l.size) % l.size
		result[i] = l.events[idx]
	}
	return result
}

// RecentByType returns up to n recent events of the given type.
func (l *Log) RecentByType(eventType Type, n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || l.count == 0 {
		return nil
	}

	var result []Event
	for i := 0; i < l.count && len(result) < n; i++ {
		idx := (l.head - 1 - i + l.size) % l.size
		if l.events[idx].Type == eventType {
			result = append(result, l.events[idx])
		}
	}
	return result
}

// Count returns the number of buffered events.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// NopEmitter discards all events.
type NopEmitter struct{}

var _ Emitter = NopEmitter{}

func (NopEmitter) Emit(Type, map[string]string)   {}
func (NopEmitter) Subscribe(Handler) func()       { return func() {} }
func (NopEmitter) Recent(int) []Event             { return nil }
func (NopEmitter) RecentByType(Type, int) []Event { return nil }
