package watch

import (
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, debounce int, handler Handler) *Watcher {
	t.Helper()
	w, err := New(Config{Debounce: debounce}, handler)
	if err != nil {
		t.Fatal(err)
	}
	w.Logger = log.New(io.Discard, "", 0)
	t.Cleanup(func() { w.watcher.Close() })
	return w
}

func waitForEvents(t *testing.T, w *Watcher, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := w.Events(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d event(s), have %d", n, len(w.Events()))
	return nil
}

func TestHandleEventTriggersHandler(t *testing.T) {
	var calls int32
	var gotPath atomic.Value
	w := newTestWatcher(t, 10, func(path string) error {
		atomic.AddInt32(&calls, 1)
		gotPath.Store(path)
		return nil
	})

	w.handleEvent(fsnotify.Event{Name: "/drop/report.xlsx", Op: fsnotify.Create})

	events := waitForEvents(t, w, 1)
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("handler calls = %d", calls)
	}
	if gotPath.Load() != "/drop/report.xlsx" {
		t.Errorf("path = %v", gotPath.Load())
	}
	if events[0].Status != "analyzed" {
		t.Errorf("status = %q", events[0].Status)
	}
}

func TestHandleEventIgnoresNonWorkbooks(t *testing.T) {
	w := newTestWatcher(t, 10, func(string) error {
		t.Error("handler should not run")
		return nil
	})

	for _, name := range []string{
		"/drop/notes.txt",
		"/drop/archive.zip",
		"/drop/report.pdf",
	} {
		w.handleEvent(fsnotify.Event{Name: name, Op: fsnotify.Create})
	}

	time.Sleep(50 * time.Millisecond)
	if events := w.Events(); len(events) != 0 {
		t.Errorf("events = %v", events)
	}
}

func TestHandleEventIgnoresOfficeTempFiles(t *testing.T) {
	w := newTestWatcher(t, 10, func(string) error {
		t.Error("handler should not run")
		return nil
	})

	w.handleEvent(fsnotify.Event{Name: "/drop/~$budget.xlsx", Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: "/drop/.~lock.budget.xlsx", Op: fsnotify.Write})

	time.Sleep(50 * time.Millisecond)
	if events := w.Events(); len(events) != 0 {
		t.Errorf("events = %v", events)
	}
}

func TestHandleEventIgnoresRemoveAndRename(t *testing.T) {
	w := newTestWatcher(t, 10, func(string) error {
		t.Error("handler should not run")
		return nil
	})

	w.handleEvent(fsnotify.Event{Name: "/drop/report.xlsx", Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: "/drop/report.xlsx", Op: fsnotify.Rename})

	time.Sleep(50 * time.Millisecond)
	if events := w.Events(); len(events) != 0 {
		t.Errorf("events = %v", events)
	}
}

func TestHandleEventDebouncesBursts(t *testing.T) {
	var calls int32
	w := newTestWatcher(t, 50, func(string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	// A workbook being copied in fires a create then a stream of writes.
	w.handleEvent(fsnotify.Event{Name: "/drop/big.xlsx", Op: fsnotify.Create})
	for i := 0; i < 5; i++ {
		time.Sleep(10 * time.Millisecond)
		w.handleEvent(fsnotify.Event{Name: "/drop/big.xlsx", Op: fsnotify.Write})
	}

	waitForEvents(t, w, 1)
	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
}

func TestHandlerErrorRecorded(t *testing.T) {
	w := newTestWatcher(t, 10, func(string) error {
		return io.ErrUnexpectedEOF
	})

	w.handleEvent(fsnotify.Event{Name: "/drop/bad.xlsx", Op: fsnotify.Write})

	events := waitForEvents(t, w, 1)
	if events[0].Status != "error" {
		t.Errorf("status = %q", events[0].Status)
	}
	if events[0].Error == "" {
		t.Error("error message should be recorded")
	}
}

func TestNilHandlerSkips(t *testing.T) {
	w := newTestWatcher(t, 10, nil)

	w.handleEvent(fsnotify.Event{Name: "/drop/data.csv", Op: fsnotify.Create})

	events := waitForEvents(t, w, 1)
	if events[0].Status != "skipped" {
		t.Errorf("status = %q", events[0].Status)
	}
}

func TestDebounceDefault(t *testing.T) {
	w := newTestWatcher(t, 0, nil)
	if w.Config.Debounce != 2000 {
		t.Errorf("debounce = %d, want 2000", w.Config.Debounce)
	}
}
