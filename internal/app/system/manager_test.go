package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name   string
	calls  *[]string
	failOn string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.calls = append(*s.calls, "start:"+s.name)
	if s.failOn == "start" {
		return errors.New("start failed")
	}
	return nil
}

func (s *recordingService) Stop(context.Context) error {
	*s.calls = append(*s.calls, "stop:"+s.name)
	if s.failOn == "stop" {
		return errors.New("stop failed")
	}
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var calls []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, calls: &calls}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	var calls []string
	m := NewManager()
	if err := m.Register(&recordingService{name: "a", calls: &calls}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(&recordingService{name: "a", calls: &calls}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestManagerStartFailureUnwindsStarted(t *testing.T) {
	var calls []string
	m := NewManager()
	m.Register(&recordingService{name: "a", calls: &calls})
	m.Register(&recordingService{name: "b", calls: &calls, failOn: "start"})
	m.Register(&recordingService{name: "c", calls: &calls})

	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
}
