package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Sales"); err != nil {
		t.Fatal(err)
	}
	rows := [][]any{
		{"region", "revenue"},
		{"EMEA", 120},
		{"APAC", 95},
		{"AMER", 180},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sales", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadPreview(t *testing.T) {
	path := writeTestWorkbook(t)
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	p, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(p.Sheets))
	}

	sales := p.Sheets[0]
	if sales.Name != "Sales" {
		t.Errorf("sheet name = %q", sales.Name)
	}
	if sales.Rows != 4 {
		t.Errorf("rows = %d, want 4", sales.Rows)
	}
	if sales.Cols != 2 {
		t.Errorf("cols = %d, want 2", sales.Cols)
	}
	if len(sales.Head) != 4 {
		t.Errorf("head rows = %d, want 4", len(sales.Head))
	}
	if sales.Head[0][0] != "region" {
		t.Errorf("first cell = %q", sales.Head[0][0])
	}

	// Reading must never modify the workbook.
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(original) {
		t.Error("Read modified the source file")
	}
}

func TestReadHeadLimit(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for i := 1; i <= 25; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i)
		if err := f.SetCellValue("Sheet1", cell, i); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "long.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	p, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Sheets[0].Rows != 25 {
		t.Errorf("rows = %d, want 25", p.Sheets[0].Rows)
	}
	if len(p.Sheets[0].Head) != headLimit {
		t.Errorf("head = %d, want %d", len(p.Sheets[0].Head), headLimit)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.xlsx")
	if err := Check(missing); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.xlsx")
	os.WriteFile(empty, nil, 0644)
	if err := Check(empty); err == nil {
		t.Error("expected error for empty file")
	}

	wrongExt := filepath.Join(dir, "report.docx")
	os.WriteFile(wrongExt, []byte("data"), 0644)
	if err := Check(wrongExt); err == nil {
		t.Error("expected error for unsupported extension")
	}

	csv := filepath.Join(dir, "data.csv")
	os.WriteFile(csv, []byte("a,b\n1,2\n"), 0644)
	if err := Check(csv); err != nil {
		t.Errorf("csv should be accepted for upload: %v", err)
	}

	if err := Check(dir); err == nil {
		t.Error("expected error for directory")
	}
}

func TestReadRejectsCSV(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "data.csv")
	os.WriteFile(csv, []byte("a,b\n1,2\n"), 0644)
	if _, err := Read(csv); err == nil {
		t.Error("local preview of csv should be refused")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
