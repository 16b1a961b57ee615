package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Normalization holds the unit-alias and parameter-alias tables. Their
// content is a curated artifact tied to one lab provider's OCR quirks, so a
// deployment can override them from a JSON file; the defaults cover the
// artifacts observed in Diagnostyka reports.
type Normalization struct {
	Units      map[string]string `json:"units"`
	Parameters map[string]string `json:"parameters"`
}

// DefaultNormalization returns the curated alias tables.
func DefaultNormalization() Normalization {
	return Normalization{
		Units: map[string]string{
			"min/ul": "mln/ul",
			"f":      "fl",
			"fi":     "fl",
			"fI":     "fl",
			"UI":     "U/l",
			"UJ":     "U/l",
			"pe":     "pg",
			"pg*":    "pg",
		},
		Parameters: map[string]string{
			"NRBC$":  "NRBC",
			"NRBCH":  "NRBC",
			"NRBC #": "NRBC",
			"NRBC%":  "NRBC",
			"NRBC %": "NRBC",
		},
	}
}

// LoadNormalization reads an alias override file; empty path yields the
// defaults. Entries in the file are merged over the defaults.
func LoadNormalization(path string) (Normalization, error) {
	n := DefaultNormalization()
	if path == "" {
		return n, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return n, fmt.Errorf("read normalization rules: %w", err)
	}
	var loaded Normalization
	if err := json.Unmarshal(b, &loaded); err != nil {
		return n, fmt.Errorf("parse normalization rules: %w", err)
	}
	for k, v := range loaded.Units {
		n.Units[k] = v
	}
	for k, v := range loaded.Parameters {
		n.Parameters[k] = v
	}
	return n, nil
}

var (
	reTrailingAnnotation = regexp.MustCompile(`\s*[\[(].*[)\]]\s*$`)
	reUnitArtifacts      = regexp.MustCompile(`[*$\s]`)
	reICDSuffix          = regexp.MustCompile(`\s*\(ICD-9:[^)]*\)`)
)

// NormalizeParameter strips a trailing bracketed or parenthesized annotation
// (typically a unit restated in the name) and resolves known aliases.
// Unresolved names pass through unchanged; the whole operation is idempotent.
func (n Normalization) NormalizeParameter(name string) string {
	name = strings.TrimSpace(reTrailingAnnotation.ReplaceAllString(name, ""))
	if canon, ok := n.Parameters[name]; ok {
		return canon
	}
	return name
}

// NormalizeUnit strips known OCR artifact characters (*, $, whitespace) and
// resolves known aliases. Idempotent.
func (n Normalization) NormalizeUnit(unit string) string {
	unit = reUnitArtifacts.ReplaceAllString(unit, "")
	if canon, ok := n.Units[unit]; ok {
		return canon
	}
	return unit
}

// CleanSection strips an ICD-style parenthetical suffix from the section
// name for display purposes.
func CleanSection(section string) string {
	return strings.TrimSpace(reICDSuffix.ReplaceAllString(section, ""))
}
