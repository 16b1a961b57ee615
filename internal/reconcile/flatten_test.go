package reconcile

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func newTestFlattener() *Flattener {
	return NewFlattener(DefaultNormalization(), slog.New(slog.DiscardHandler))
}

func parse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestFlattenNested(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{
		"meta": {"date_examination": "2025-12-31"},
		"examinations": [{
			"examination_name": "Morfologia krwi (ICD-9: C55)",
			"code_icd": "C55",
			"results": [
				{"name": "Hemoglobina", "value": 15.9, "unit": "g/dl", "flag": "H", "range_min": 13.2, "range_max": 17.3},
				{"name": "Erytrocyty", "value": 5.23, "unit": "mln/ul"}
			]
		}]
	}`))
	if flat == nil {
		t.Fatal("Flatten returned nil for valid nested shape")
	}
	if flat["Date"] != "2025-12-31" {
		t.Errorf("Date = %v", flat["Date"])
	}

	key := "Morfologia krwi - Hemoglobina [g/dl]"
	if flat[key] != 15.9 {
		t.Errorf("%q = %v, want 15.9 (section must lose the ICD suffix)", key, flat[key])
	}
	if flat[key+"_flag"] != "H" {
		t.Errorf("%q = %v", key+"_flag", flat[key+"_flag"])
	}
	if flat[key+"_min"] != 13.2 || flat[key+"_max"] != 17.3 {
		t.Errorf("range keys = %v / %v", flat[key+"_min"], flat[key+"_max"])
	}
	if flat["Morfologia krwi - Erytrocyty [mln/ul]"] != 5.23 {
		t.Errorf("second finding missing: %v", flat)
	}
}

func TestFlattenUnitDisambiguation(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{
		"meta": {"date_examination": "2025-12-31"},
		"examinations": [{
			"examination_name": "Morfologia krwi",
			"results": [
				{"name": "Neutrofile", "value": 54.2, "unit": "%"},
				{"name": "Neutrofile", "value": 3.1, "unit": "tys/ul"}
			]
		}]
	}`))
	if flat == nil {
		t.Fatal("Flatten returned nil")
	}
	// Same parameter name, different units: two distinct keys, both present.
	// Note the % unit is stripped of artifacts but kept as the suffix.
	if flat["Morfologia krwi - Neutrofile [%]"] != 54.2 {
		t.Errorf("percentage finding missing: %v", flat)
	}
	if flat["Morfologia krwi - Neutrofile [tys/ul]"] != 3.1 {
		t.Errorf("absolute finding missing: %v", flat)
	}
}

func TestFlattenDuplicateKeyLastWins(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{
		"meta": {"date_examination": "2025-12-31"},
		"examinations": [{
			"examination_name": "Morfologia krwi",
			"results": [
				{"name": "MCV", "value": 88.0, "unit": "fl"},
				{"name": "MCV", "value": 89.0, "unit": "fi"}
			]
		}]
	}`))
	// "fi" normalizes to "fl": a true duplicate; the later finding wins.
	if flat["Morfologia krwi - MCV [fl]"] != 89.0 {
		t.Errorf("last-wins policy violated: %v", flat)
	}
}

func TestFlattenNameAnnotationStripped(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{
		"meta": {"date_examination": "2025-12-31"},
		"examinations": [{
			"examination_name": "Morfologia krwi",
			"results": [{"name": "Leukocyty [tys/ul]", "value": 5.79, "unit": "tys/ul"}]
		}]
	}`))
	if flat["Morfologia krwi - Leukocyty [tys/ul]"] != 5.79 {
		t.Errorf("trailing annotation not stripped from name: %v", flat)
	}
}

func TestFlattenFlatVintage(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{"Date": "2025-06-01", "results": {"PLT": 267, "Hemoglobina": 15.9}}`))
	if flat == nil {
		t.Fatal("Flatten returned nil for flat vintage")
	}
	if flat["Date"] != "2025-06-01" || flat["PLT"] != 267.0 {
		t.Errorf("flat vintage mangled: %v", flat)
	}
}

func TestFlattenBareFlatVintage(t *testing.T) {
	f := newTestFlattener()
	flat := f.Flatten(parse(t, `{"Date": "2024-03-01", "Hemoglobina": 15.9}`))
	if flat == nil {
		t.Fatal("Flatten returned nil for bare flat vintage")
	}
	if flat["Date"] != "2024-03-01" || flat["Hemoglobina"] != 15.9 {
		t.Errorf("bare flat vintage mangled: %v", flat)
	}
}

func TestFlattenUnrecognizedShape(t *testing.T) {
	f := newTestFlattener()
	for name, raw := range map[string]string{
		"missing everything": `{"foo": "bar"}`,
		"exams without meta": `{"examinations": []}`,
		"meta without date":  `{"meta": {}, "examinations": []}`,
		"exams not a list":   `{"meta": {"date_examination": "2025-01-01"}, "examinations": {}}`,
	} {
		if got := f.Flatten(parse(t, raw)); got != nil {
			t.Errorf("%s: Flatten = %v, want nil skip", name, got)
		}
	}
	if got := f.Flatten(nil); got != nil {
		t.Errorf("nil input: Flatten = %v, want nil", got)
	}
}
