package runlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	logger := NewLogger(path, true)

	logger.Log(Entry{
		Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Command:   "run",
		Provider:  "openai",
		Workbook:  "sales.xlsx",
		Question:  "what changed?",
		Status:    "ok",
		Artifacts: []string{"data_dictionary.json"},
	})
	logger.Log(Entry{
		Timestamp: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		Command:   "ask",
		Provider:  "openai",
		Workbook:  "sales.xlsx",
		Status:    "error",
		Error:     "remote_execution: run failed",
	})

	entries, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Command != "run" || entries[0].Status != "ok" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Error == "" {
		t.Error("error entry lost its message")
	}
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	logger := NewLogger(path, false)
	logger.Log(Entry{Command: "run", Status: "ok"})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("disabled logger should not create the file")
	}
}

func TestReadMissingFile(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"command":"run","status":"ok"}
this is not json
{"command":"ask","status":"ok"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	logger := NewLogger(path, true)
	for _, cmd := range []string{"run", "profile", "ask", "watch"} {
		logger.Log(Entry{Command: cmd, Status: "ok"})
	}

	entries, err := Tail(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Command != "ask" || entries[1].Command != "watch" {
		t.Errorf("tail = %v", entries)
	}
}
