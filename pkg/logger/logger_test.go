package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutputIncludesFields(t *testing.T) {
	log := New(LoggingConfig{Level: "debug", Format: "json", Output: "stdout"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("journal_id", "j-1").WithError(nil).Info("entry minted")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["journal_id"] != "j-1" {
		t.Fatalf("expected journal_id field, got %v", record)
	}
	if record["msg"] != "entry minted" {
		t.Fatalf("expected message, got %v", record["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	log := New(LoggingConfig{Level: "warn", Format: "text", Output: "stdout"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Info("should be dropped")
	log.Warnf("kept: %s", "yes")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info line not filtered: %q", out)
	}
	if !strings.Contains(out, "kept: yes") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	log := New(LoggingConfig{Level: "nonsense"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Debug("hidden")
	log.Info("visible")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line should be filtered at default level")
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("info line missing")
	}
}
