package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReportJSONSchema returns the JSON-Schema (draft 2020-12 subset) for a
// structured lab report, as a generic map. Used locally to validate model
// output in the strict variant.
func BuildReportJSONSchema() map[string]any {
	finding := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":      map[string]any{"type": "string", "minLength": 1},
			"value":     map[string]any{"type": "number"},
			"unit":      map[string]any{"type": "string"},
			"flag":      map[string]any{"type": []any{"string", "null"}},
			"range_min": map[string]any{"type": "number"},
			"range_max": map[string]any{"type": "number"},
		},
		"required": []any{"name", "value"},
	}
	examination := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"examination_name": map[string]any{"type": "string", "minLength": 1},
			"code_icd":         map[string]any{"type": "string"},
			"results":          map[string]any{"type": "array", "items": finding},
		},
		"required": []any{"examination_name", "results"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meta": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date_examination": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				},
				"required": []any{"date_examination"},
			},
			"examinations": map[string]any{"type": "array", "items": examination},
		},
		"required": []any{"meta", "examinations"},
	}
}

// ValidateReport validates a parsed extraction result against the report
// schema. Flat legacy results (a "results" map plus date) pass untouched;
// the schema binds only the nested shape.
func ValidateReport(data map[string]any) error {
	if _, nested := data["examinations"]; !nested {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return validateJSONAgainstSchema(BuildReportJSONSchema(), b)
}

// validateJSONAgainstSchema validates "data" against "schemaMap".
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
