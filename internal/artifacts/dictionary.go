package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// inferredTypes are the column types the agent is instructed to emit.
var inferredTypes = map[string]bool{
	"numeric":     true,
	"date":        true,
	"text":        true,
	"categorical": true,
}

// Column describes one column of a profiled sheet.
type Column struct {
	Name         string  `json:"name"`
	InferredType string  `json:"inferred_type"`
	MissingPct   float64 `json:"missing_pct"`
	UniqueCt     int     `json:"unique_ct"`
}

// Sheet describes one profiled worksheet.
type Sheet struct {
	Name    string           `json:"name"`
	Rows    int              `json:"rows"`
	Cols    int              `json:"cols"`
	Columns []Column         `json:"columns"`
	Sample  []map[string]any `json:"sample,omitempty"`
}

// Dictionary is the structured profile of a workbook, generated remotely.
type Dictionary struct {
	Sheets []Sheet  `json:"sheets"`
	Notes  []string `json:"notes,omitempty"`
}

// ParseDictionary decodes and validates a data dictionary document.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("could not parse data dictionary: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDictionary reads and parses a data dictionary file.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return ParseDictionary(data)
}

// Validate checks the dictionary against the structure the agent was asked
// to produce.
func (d *Dictionary) Validate() error {
	if len(d.Sheets) == 0 {
		return fmt.Errorf("data dictionary has no sheets")
	}
	for i, s := range d.Sheets {
		if s.Name == "" {
			return fmt.Errorf("sheet %d has no name", i)
		}
		if s.Rows < 0 || s.Cols < 0 {
			return fmt.Errorf("sheet %q has negative dimensions", s.Name)
		}
		for _, col := range s.Columns {
			if col.Name == "" {
				return fmt.Errorf("sheet %q has an unnamed column", s.Name)
			}
			if col.InferredType != "" && !inferredTypes[col.InferredType] {
				return fmt.Errorf("sheet %q column %q has unknown inferred type %q", s.Name, col.Name, col.InferredType)
			}
			if col.MissingPct < 0 || col.MissingPct > 1 {
				return fmt.Errorf("sheet %q column %q missing_pct %v is out of [0,1]", s.Name, col.Name, col.MissingPct)
			}
		}
	}
	return nil
}

// Summary renders a compact plain-text overview of the dictionary.
func (d *Dictionary) Summary() string {
	var sb strings.Builder
	for _, s := range d.Sheets {
		fmt.Fprintf(&sb, "Sheet %q — %d rows × %d cols\n", s.Name, s.Rows, s.Cols)
		for _, col := range s.Columns {
			fmt.Fprintf(&sb, "  %-24s %-12s missing %.1f%%  unique %d\n",
				col.Name, col.InferredType, col.MissingPct*100, col.UniqueCt)
		}
	}
	for _, n := range d.Notes {
		fmt.Fprintf(&sb, "Note: %s\n", n)
	}
	return sb.String()
}
