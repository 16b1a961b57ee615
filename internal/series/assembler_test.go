package series

import (
	"log/slog"
	"testing"
)

func newTestAssembler() *Assembler {
	return NewAssembler(slog.New(slog.DiscardHandler))
}

func colIndex(t *testing.T, table Table, name string) int {
	t.Helper()
	for i, c := range table.Columns {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q missing from %v", name, table.Columns)
	return -1
}

func TestBuildSortsByDate(t *testing.T) {
	a := newTestAssembler()
	a.Add(map[string]any{"Date": "2025-06-01", "Morfologia krwi - PLT [tys/ul]": 267.0})
	a.Add(map[string]any{"Date": "2025-01-15", "Morfologia krwi - PLT [tys/ul]": 250.0})
	a.Add(nil) // skipped document

	table := a.Build()
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	di := colIndex(t, table, "Date")
	if table.Rows[0][di] != "2025-01-15" || table.Rows[1][di] != "2025-06-01" {
		t.Errorf("rows not date-sorted: %v", table.Rows)
	}
}

func TestBuildColumnUnionAndMissingCells(t *testing.T) {
	a := newTestAssembler()
	a.Add(map[string]any{"Date": "2025-01-01", "A - x": 1.0})
	a.Add(map[string]any{"Date": "2025-01-02", "A - y": 2.0})

	table := a.Build()
	xi := colIndex(t, table, "A - x")
	yi := colIndex(t, table, "A - y")
	if table.Rows[0][yi] != nil || table.Rows[1][xi] != nil {
		t.Errorf("missing cells should stay blank: %v", table.Rows)
	}
	if table.Columns[0] != "Date" {
		t.Errorf("Date must be the first column: %v", table.Columns)
	}
}

func TestBuildNumericCoercion(t *testing.T) {
	a := newTestAssembler()
	a.Add(map[string]any{
		"Date":           "2025-01-01",
		"A - comma":      "5,79",
		"A - plain":      "12.3",
		"A - number":     4.0,
		"A - garbage":    "n/a",
		"A - value_flag": "H",
	})

	table := a.Build()
	row := table.Rows[0]
	if row[colIndex(t, table, "A - comma")] != 5.79 {
		t.Errorf("comma decimal not coerced: %v", row)
	}
	if row[colIndex(t, table, "A - plain")] != 12.3 {
		t.Errorf("plain decimal not coerced: %v", row)
	}
	if row[colIndex(t, table, "A - number")] != 4.0 {
		t.Errorf("number mangled: %v", row)
	}
	if row[colIndex(t, table, "A - garbage")] != nil {
		t.Errorf("non-numeric value should coerce to blank: %v", row)
	}
	if row[colIndex(t, table, "A - value_flag")] != "H" {
		t.Errorf("flag column must stay textual: %v", row)
	}
}

func TestWriteXLSX(t *testing.T) {
	a := newTestAssembler()
	a.Add(map[string]any{"Date": "2025-01-01", "Morfologia krwi - Hemoglobina [g/dl]": 15.9})

	b, err := a.WriteXLSX()
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty workbook")
	}
}
