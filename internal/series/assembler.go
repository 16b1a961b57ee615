// Package series collects per-document flat records into a date-sorted
// table and renders it as an XLSX workbook.
package series

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const dateColumn = "Date"

// Assembler accumulates flat records. It is a thin consumer of the
// reconciler's output and performs no interpretation beyond numeric
// coercion and ordering.
type Assembler struct {
	records []map[string]any
	logger  *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Add appends one document's flat record. Nil records (skipped documents)
// are ignored.
func (a *Assembler) Add(record map[string]any) {
	if record == nil {
		return
	}
	a.records = append(a.records, record)
}

func (a *Assembler) Len() int { return len(a.records) }

// Table is the assembled time series: one row per document, one column per
// flat key seen anywhere in the batch.
type Table struct {
	Columns []string
	Rows    [][]any // aligned with Columns; missing cells are nil
}

// Build produces the table: the column set is the union of keys across all
// records, Date first and the rest sorted; rows are sorted by date
// ascending; measurement cells are coerced to float64 (decimal commas
// tolerated), non-coercible values become blank. Flag side columns stay
// textual, a flag like "H" is not a measurement.
func (a *Assembler) Build() Table {
	colSet := make(map[string]struct{})
	for _, rec := range a.records {
		for k := range rec {
			if k != dateColumn {
				colSet[k] = struct{}{}
			}
		}
	}
	columns := make([]string, 0, len(colSet)+1)
	for k := range colSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	columns = append([]string{dateColumn}, columns...)

	sorted := make([]map[string]any, len(a.records))
	copy(sorted, a.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return recordDate(sorted[i]).Before(recordDate(sorted[j]))
	})

	rows := make([][]any, 0, len(sorted))
	for _, rec := range sorted {
		row := make([]any, len(columns))
		for i, col := range columns {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}
			if col == dateColumn || strings.HasSuffix(col, "_flag") {
				row[i] = fmt.Sprintf("%v", v)
				continue
			}
			if f, ok := toFloat(v); ok {
				row[i] = f
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

func recordDate(rec map[string]any) time.Time {
	s, _ := rec[dateColumn].(string)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// toFloat coerces a cell to float64, tolerating numeric strings with a
// Polish decimal comma.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// WriteXLSX renders the assembled table as a single-sheet workbook.
func (a *Assembler) WriteXLSX() ([]byte, error) {
	start := time.Now()
	table := a.Build()

	f := excelize.NewFile()
	const sheet = "Wyniki"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range table.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	a.logger.Info("series.xlsx.ok",
		"rows", len(table.Rows),
		"columns", len(table.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
