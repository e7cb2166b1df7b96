package csvdata

import (
	"os"
	"path/filepath"
	"testing"

	"psephos/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "constituencies.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestRead_ValidFile(t *testing.T) {
	path := writeCSV(t, "name,code,imd_score,lab_share\n"+
		"Aldershot,E14000530,\"1,234.5\",31.2\n"+
		"Clacton,E14000635,18.9,22.4\n")

	reader := NewReader(path, "name", "code")
	ds, err := reader.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if ds.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", ds.Len())
	}
	rec, ok := ds.ByName("Aldershot")
	if !ok {
		t.Fatal("expected Aldershot record")
	}
	if rec.Code != "E14000530" {
		t.Errorf("unexpected code %s", rec.Code)
	}
	// Cells stay raw strings; coercion happens in the extractor.
	if rec.Values["imd_score"] != "1,234.5" {
		t.Errorf("expected raw cell value, got %v", rec.Values["imd_score"])
	}
}

func TestRead_CustomColumnNames(t *testing.T) {
	path := writeCSV(t, "Constituency,ONSConstID,metric\nHove,E14000833,5\n")

	reader := NewReader(path, "Constituency", "ONSConstID")
	ds, err := reader.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, ok := ds.ByName("Hove"); !ok {
		t.Error("expected Hove record under custom columns")
	}
}

func TestRead_MissingNameColumn(t *testing.T) {
	path := writeCSV(t, "code,metric\nE1,5\n")

	_, err := NewReader(path, "name", "code").Read()
	if err == nil {
		t.Fatal("expected error for missing name column")
	}
	if errors.GetCode(err) != errors.CodeDataShape {
		t.Errorf("expected DATA_SHAPE, got %s", errors.GetCode(err))
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "name,code\n")

	_, err := NewReader(path, "name", "code").Read()
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if errors.GetCode(err) != errors.CodeDataShape {
		t.Errorf("expected DATA_SHAPE, got %s", errors.GetCode(err))
	}
}

func TestRead_BlankNameRejected(t *testing.T) {
	path := writeCSV(t, "name,code,metric\n,E1,5\n")

	_, err := NewReader(path, "name", "code").Read()
	if err == nil {
		t.Fatal("expected error for record without name")
	}
	if errors.GetCode(err) != errors.CodeDataShape {
		t.Errorf("expected DATA_SHAPE, got %s", errors.GetCode(err))
	}
}

func TestRead_FileNotFound(t *testing.T) {
	if _, err := NewReader("/nonexistent/file.csv", "name", "code").Read(); err == nil {
		t.Error("expected error for missing file")
	}
}
