// Package reconcile maps heterogeneous, schema-drifting extraction output
// into a stable flat record suitable for longitudinal comparison.
package reconcile

import (
	"fmt"
	"log/slog"
)

// Flattener walks an untyped extraction result and produces one flat record
// per document. Read-only after construction.
type Flattener struct {
	norm   Normalization
	logger *slog.Logger
}

func NewFlattener(norm Normalization, logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flattener{norm: norm, logger: logger}
}

// The extraction schema drifted across report vintages. Flatten recognizes:
//
//   - flat: {"Date": ..., "results": {name: value, ...}}, or the oldest
//     vintage where the measurements sit directly beside "Date"
//   - nested: {"meta": {"date_examination": ...},
//     "examinations": [{"examination_name", "code_icd",
//     "results": [{"name","value","unit","flag","range_min","range_max"}]}]}
//
// Any other shape yields nil: a skip, never a panic. The caller must treat
// nil as "skip this document".
func (f *Flattener) Flatten(result map[string]any) map[string]any {
	if result == nil {
		return nil
	}
	if exams, ok := result["examinations"]; ok {
		return f.flattenNested(result, exams)
	}
	if results, ok := result["results"].(map[string]any); ok {
		return f.flattenFlat(result, results)
	}
	if _, ok := result["Date"]; ok {
		return f.flattenFlat(result, result)
	}
	f.logger.Warn("reconcile.unrecognized_shape", "payload_keys", keysOf(result))
	return nil
}

// flattenFlat handles the legacy flat vintage: the results map is taken
// as-is, plus the document date.
func (f *Flattener) flattenFlat(result map[string]any, results map[string]any) map[string]any {
	flat := make(map[string]any, len(results)+1)
	for k, v := range results {
		flat[k] = v
	}
	flat["Date"] = result["Date"]
	return flat
}

func (f *Flattener) flattenNested(result map[string]any, examsVal any) map[string]any {
	meta, ok := result["meta"].(map[string]any)
	if !ok {
		f.logger.Warn("reconcile.missing_meta", "payload_keys", keysOf(result))
		return nil
	}
	date, ok := meta["date_examination"].(string)
	if !ok || date == "" {
		f.logger.Warn("reconcile.missing_examination_date")
		return nil
	}
	exams, ok := examsVal.([]any)
	if !ok {
		f.logger.Warn("reconcile.examinations_not_a_list")
		return nil
	}

	flat := map[string]any{"Date": date}
	for _, e := range exams {
		exam, ok := e.(map[string]any)
		if !ok {
			continue
		}
		section, _ := exam["examination_name"].(string)
		if section == "" {
			section = "Inne"
		}
		section = CleanSection(section)

		findings, _ := exam["results"].([]any)
		for _, r := range findings {
			finding, ok := r.(map[string]any)
			if !ok {
				continue
			}
			f.writeFinding(flat, section, finding)
		}
	}
	return flat
}

// writeFinding builds the flat key "<section> - <parameter> [<unit>]" (unit
// segment omitted when absent) and writes the value plus the optional
// _flag/_min/_max side keys. Two findings normalizing to the same key within
// one document overwrite each other, later wins: the unit-qualified key
// already keeps same-name/different-unit findings apart, so a true collision
// is a duplicated finding in the source.
func (f *Flattener) writeFinding(flat map[string]any, section string, finding map[string]any) {
	name, _ := finding["name"].(string)
	name = f.norm.NormalizeParameter(name)
	if name == "" {
		return
	}

	key := fmt.Sprintf("%s - %s", section, name)
	if unit, _ := finding["unit"].(string); unit != "" {
		if u := f.norm.NormalizeUnit(unit); u != "" {
			key = fmt.Sprintf("%s [%s]", key, u)
		}
	}

	flat[key] = finding["value"]
	if flag, ok := finding["flag"].(string); ok && flag != "" {
		flat[key+"_flag"] = flag
	}
	if min, ok := finding["range_min"]; ok && min != nil {
		flat[key+"_min"] = min
	}
	if max, ok := finding["range_max"]; ok && max != nil {
		flat[key+"_max"] = max
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
