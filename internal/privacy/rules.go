package privacy

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rules are the locale- and vendor-specific redaction patterns. Their content
// is a data-curation artifact tied to one lab provider's exact wording, so
// they load from an external file when one is configured; the defaults match
// the Diagnostyka report layout.
type Rules struct {
	RoleLabels    []string `json:"role_labels"`
	DOBLabel      string   `json:"dob_label"`
	NoisePatterns []string `json:"noise_patterns"`
}

// DefaultRules returns the curated rule set for Diagnostyka-format reports.
func DefaultRules() Rules {
	return Rules{
		RoleLabels: []string{"Pacjent", "Odbiorca", "Lekarz"},
		DOBLabel:   `Data ur`,
		NoisePatterns: []string{
			`przyjęcia prób`,
			`Data wykonania`,
			`Data/godz\. wydania`,
			`DIAGNOSTYKA S\.A\.`,
			`KREW ŻYLNA`,
			`Strona:? \d+ z \d+`,
		},
	}
}

// LoadRules reads a rule override file; empty path yields the defaults.
// Absent fields in the file fall back to the default value so an override
// can replace just the noise list.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read privacy rules: %w", err)
	}
	var loaded Rules
	if err := json.Unmarshal(b, &loaded); err != nil {
		return rules, fmt.Errorf("parse privacy rules: %w", err)
	}
	if len(loaded.RoleLabels) > 0 {
		rules.RoleLabels = loaded.RoleLabels
	}
	if loaded.DOBLabel != "" {
		rules.DOBLabel = loaded.DOBLabel
	}
	if len(loaded.NoisePatterns) > 0 {
		rules.NoisePatterns = loaded.NoisePatterns
	}
	return rules, nil
}
