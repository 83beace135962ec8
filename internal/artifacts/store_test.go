package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path, err := store.Save("data_dictionary.json", []byte(`{"sheets":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved outside store dir: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"sheets":[]}` {
		t.Errorf("content = %q", data)
	}

	// Saving the same name again overwrites, never appends.
	if _, err := store.Save("data_dictionary.json", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("after overwrite content = %q", data)
	}

	// Idempotence: repeating the same write yields identical bytes.
	if _, err := store.Save("data_dictionary.json", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	again, _ := os.ReadFile(path)
	if string(again) != "v2" {
		t.Errorf("after repeat content = %q", again)
	}
}

func TestSaveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	store := NewStore(dir)

	path, err := store.Save("chart.png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chart.png", "chart.png"},
		{"/mnt/data/data_dictionary.json", "data_dictionary.json"},
		{"../../etc/passwd", "passwd"},
		{`C:\temp\plot.png`, "plot.png"},
		{"..", ""},
		{"", ""},
		{"name\x00with\x1fcontrol.png", "namewithcontrol.png"},
		{"  spaced.json  ", "spaced.json"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveRejectsUnusableName(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Save("..", []byte("x")); err == nil {
		t.Error("expected error for unusable filename")
	}
}
