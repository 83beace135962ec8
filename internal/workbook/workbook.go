// Package workbook provides local, read-only inspection of spreadsheet
// files before they are uploaded to the remote agent.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headLimit matches the sample size the remote agent is instructed to use.
const headLimit = 10

// acceptedExtensions are the formats the remote execution sandbox can open.
var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
	".csv":  true,
}

// excelExtensions are the subset excelize can open for a local preview.
var excelExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// SheetInfo describes one worksheet: its dimensions and the first rows.
type SheetInfo struct {
	Name string     `json:"name"`
	Rows int        `json:"rows"`
	Cols int        `json:"cols"`
	Head [][]string `json:"head,omitempty"`
}

// Preview is the local summary of a workbook.
type Preview struct {
	Path   string      `json:"path"`
	Size   int64       `json:"size"`
	Sheets []SheetInfo `json:"sheets"`
}

// Check verifies the path points at an existing, non-empty file in a format
// the sandbox accepts. It never opens the file contents.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		return fmt.Errorf("could not stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a workbook", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !acceptedExtensions[ext] {
		accepted := make([]string, 0, len(acceptedExtensions))
		for e := range acceptedExtensions {
			accepted = append(accepted, e)
		}
		return fmt.Errorf("unsupported workbook format %q — accepted: %s", ext, strings.Join(accepted, " "))
	}
	return nil
}

// Read opens the workbook read-only and summarizes every sheet. The source
// file is never modified.
func Read(path string) (*Preview, error) {
	if err := Check(path); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !excelExtensions[ext] {
		return nil, fmt.Errorf("local preview requires an Excel file, got %q — CSV files can still be uploaded with 'run'", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid Excel file? %w", path, err)
	}
	defer f.Close()

	p := &Preview{Path: path, Size: info.Size()}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}

		si := SheetInfo{Name: name, Rows: len(rows)}
		for _, row := range rows {
			if len(row) > si.Cols {
				si.Cols = len(row)
			}
		}
		head := len(rows)
		if head > headLimit {
			head = headLimit
		}
		si.Head = rows[:head]
		p.Sheets = append(p.Sheets, si)
	}

	return p, nil
}

// Text renders the preview as plain text for terminal output.
func (p *Preview) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", p.Path, FormatSize(p.Size))
	for _, s := range p.Sheets {
		fmt.Fprintf(&sb, "\nSheet %q — %d rows × %d cols\n", s.Name, s.Rows, s.Cols)
		for _, row := range s.Head {
			sb.WriteString("  " + strings.Join(row, " | ") + "\n")
		}
		if s.Rows > len(s.Head) {
			fmt.Fprintf(&sb, "  … %d more rows\n", s.Rows-len(s.Head))
		}
	}
	return sb.String()
}

// FormatSize renders a byte count in human-readable units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
