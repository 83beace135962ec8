// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Writer handles formatted output to a destination.
type Writer struct {
	dest io.Writer
}

// NewWriter creates an output writer targeting stdout.
func NewWriter() *Writer {
	return &Writer{dest: os.Stdout}
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// Success prints a green checkmark line to stderr.
func Success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line to stderr.
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{color.RedString("Error:")}, args...)...)
}
