// Package artifacts saves files produced by the remote agent and models the
// data dictionary artifact it generates.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes agent-produced files into a local directory.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir. An empty dir means the current
// working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// Save writes data to the named file, overwriting any existing file of the
// same name. It returns the path written.
func (s *Store) Save(name string, data []byte) (string, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("artifact has no usable filename (got %q)", name)
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("could not create output directory %s: %w", s.Dir, err)
	}

	path := filepath.Join(s.Dir, clean)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("could not write %s: %w", path, err)
	}
	return path, nil
}

// SanitizeName strips directory components and control characters from an
// agent-supplied filename so it cannot escape the output directory.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	var sb strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}
