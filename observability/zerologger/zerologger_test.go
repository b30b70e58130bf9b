package zerologger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/loomkit/loom/core"
	"github.com/rs/zerolog"
)

// TestLogger_EmitsStructuredFields tests the core.Logger adaptation
// Main test items:
// 1. Messages come out as JSON with the right level
// 2. Fields are attached under their keys
func TestLogger_EmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	l.Info("worker started", core.F("worker_id", 3), core.F("step_ms", 10))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
	if entry["message"] != "worker started" {
		t.Errorf("expected message, got %v", entry["message"])
	}
	if entry["worker_id"] != float64(3) {
		t.Errorf("expected worker_id 3, got %v", entry["worker_id"])
	}
	if entry["step_ms"] != float64(10) {
		t.Errorf("expected step_ms 10, got %v", entry["step_ms"])
	}
}

// TestLogger_Levels tests that each method emits its level
func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(lines))
	}
	for i, want := range []string{"debug", "info", "warn", "error"} {
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("line %d not JSON: %v", i, err)
		}
		if entry["level"] != want {
			t.Errorf("line %d: expected level %q, got %v", i, want, entry["level"])
		}
	}
}
