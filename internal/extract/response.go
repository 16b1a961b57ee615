package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var reCodeFence = regexp.MustCompile("```json|```")

// ProcessResponse normalizes raw model output: strips Markdown code fences,
// rejects empty output, parses JSON, and canonicalizes the date key casing
// (models return either "date" or "Date").
func ProcessResponse(raw string) (map[string]any, error) {
	clean := strings.TrimSpace(reCodeFence.ReplaceAllString(raw, ""))
	if clean == "" {
		return nil, ErrEmptyResponse
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(clean), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if v, ok := data["date"]; ok {
		delete(data, "date")
		data["Date"] = v
	}
	return data, nil
}
