package events

import (
	"encoding/json"
	"os"
	"sync"
)

// FileSink appends events as JSONL so an indexer can tail the file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the JSONL file at path. An empty path
// returns a nil sink, which Attach treats as a no-op.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: f}, nil
}

// Attach subscribes the sink to the emitter. Write errors are swallowed so
// a full disk cannot stall the ledger.
func (s *FileSink) Attach(emitter Emitter) func() {
	if s == nil || s.file == nil {
		return func() {}
	}
	return emitter.Subscribe(func(e Event) {
		_ = s.Write(e)
	})
}

// Write appends one event as a JSON line.
func (s *FileSink) Write(e Event) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
