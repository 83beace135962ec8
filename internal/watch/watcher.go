// Package watch monitors directories for arriving workbooks and hands them
// to an analysis handler.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// workbookExtensions are the spreadsheet formats worth analyzing.
var workbookExtensions = map[string]bool{
	".xlsx": true, ".xlsm": true, ".xltx": true, ".xltm": true, ".csv": true,
}

// Config holds the watcher configuration.
type Config struct {
	Directories []string `json:"directories"`
	Recursive   bool     `json:"recursive"`
	Debounce    int      `json:"debounceMs"` // Milliseconds to wait before processing
}

// Event records one detected workbook and what happened to it.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "analyzed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Handler is called with the path of a settled workbook.
type Handler func(path string) error

// Watcher monitors directories and triggers analysis on new workbooks.
type Watcher struct {
	Config  Config
	Logger  *log.Logger
	Handler Handler

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
}

// New creates a Watcher with the given configuration.
func New(config Config, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 2000
	}

	return &Watcher{
		Config:   config,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		Handler:  handler,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the configured directories. It blocks until the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else {
			if err := w.watcher.Add(absDir); err != nil {
				return fmt.Errorf("could not watch %s: %w", absDir, err)
			}
		}
	}

	w.Logger.Printf("Watching %d directory(ies) for workbooks", len(w.Config.Directories))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !workbookExtensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	// Skip Office lock/temp files
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return
	}

	// Debounce: a workbook being copied in fires many write events
	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	op := event.Op.String()
	w.debounce[path] = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.process(path, op)
	})
	w.mu.Unlock()
}

func (w *Watcher) process(path, operation string) {
	evt := Event{Time: time.Now(), Path: path, Operation: operation}

	if w.Handler == nil {
		evt.Status = "skipped"
	} else if err := w.Handler(path); err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.Logger.Printf("Error analyzing %s: %v", path, err)
	} else {
		evt.Status = "analyzed"
		w.Logger.Printf("Analyzed %s", path)
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}
