// Package runlog keeps a local JSONL history of agent runs.
package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry records a single agent run.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
	Workbook   string    `json:"workbook"`
	Question   string    `json:"question,omitempty"`
	Status     string    `json:"status"` // "ok" or "error"
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Artifacts  []string  `json:"artifacts,omitempty"`
}

// Logger appends run entries to a JSONL file.
type Logger struct {
	Path    string
	Enabled bool
}

// NewLogger creates a Logger. A disabled logger drops all entries.
func NewLogger(path string, enabled bool) *Logger {
	return &Logger{Path: path, Enabled: enabled}
}

// Log appends one entry. Best-effort: failures never block a command.
func (l *Logger) Log(entry Entry) {
	if !l.Enabled || l.Path == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
}

// Read returns all entries from the log file, oldest first. A missing file
// yields an empty history.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Tail returns the most recent n entries, newest last.
func Tail(path string, n int) ([]Entry, error) {
	entries, err := Read(path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
