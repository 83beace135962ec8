// Package progress provides terminal progress bars and spinners.
// All output goes to stderr to avoid polluting stdout/pipes.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Spinner shows an animated indicator for operations of unknown duration,
// such as waiting on a remote agent run.
type Spinner struct {
	Label   string
	Enabled bool

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner. Automatically disabled if stderr is not a
// TTY or SHEETAGENT_NO_PROGRESS=1.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(),
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	s.stopped = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		frames := []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}
		i := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(os.Stderr, "\r\033[K%c %s", frames[i%len(frames)], s.Label)
					i++
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Update changes the spinner label while it's running, e.g. when the
// pipeline moves from uploading to polling.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

// Stop stops the spinner and prints a result line.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.Enabled {
		fmt.Fprintf(os.Stderr, "\r\033[K✓ %s\n", result)
	}
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(result string) {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.Enabled {
		fmt.Fprintf(os.Stderr, "\r\033[K✗ %s\n", result)
	}
}

// Bar renders an ASCII progress bar, used while downloading artifacts.
type Bar struct {
	Total   int
	Current int
	Label   string
	Width   int
	Enabled bool

	mu sync.Mutex
}

// NewBar creates a progress bar.
func NewBar(label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   40,
		Enabled: shouldEnable(),
	}
}

// Increment advances the bar by 1 and redraws.
func (b *Bar) Increment(status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Current++
	if b.Current > b.Total {
		b.Current = b.Total
	}
	b.render(status)
}

// Finish prints a final completion line.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "\r\033[K✓ %s\n", summary)
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	pct := 0.0
	if b.Total > 0 {
		pct = float64(b.Current) / float64(b.Total)
	}

	filled := int(pct * float64(b.Width))
	if filled > b.Width {
		filled = b.Width
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", b.Width-filled)
	fmt.Fprintf(os.Stderr, "\r\033[K%s [%s] %d/%d  %s",
		b.Label, bar, b.Current, b.Total, status)
}

func shouldEnable() bool {
	if os.Getenv("SHEETAGENT_NO_PROGRESS") == "1" {
		return false
	}
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
