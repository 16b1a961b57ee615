package extract

import (
	"strings"
	"unicode/utf8"
)

// BuildSystemPrompt composes the extraction instruction. The target shape is
// the nested examinations document the reconciler understands; the rules pin
// down the number format and forbid markdown so ProcessResponse stays simple.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a medical lab-report parser. You receive anonymized OCR text of a blood test report.",
		"Convert it into exactly one JSON object of this shape:",
		`{"meta": {"date_examination": "YYYY-MM-DD"},` +
			` "examinations": [{"examination_name": "...", "code_icd": "...",` +
			` "results": [{"name": "...", "value": 0.0, "unit": "...", "flag": "H|L|null",` +
			` "range_min": 0.0, "range_max": 0.0}]}]}`,
		"Rules:",
		"1. Find the examination date (Data pobrania) and put it under meta.date_examination.",
		"2. Convert Polish decimal commas to dots, e.g. \"5,79\" -> 5.79; values are numbers, not strings.",
		"3. One examinations entry per report section (e.g. Morfologia krwi); keep the ICD code if printed.",
		"4. Include unit, flag and reference range only when visible; omit absent fields, never output null strings.",
		"5. Return plain JSON text with no markdown fences and no commentary.",
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt caps the report text the way the backends expect it.
func BuildUserPrompt(text string) string {
	const maxLen = 12000
	text = strings.TrimSpace(text)
	if len(text) > maxLen {
		// Back the cut off to a rune start so a multi-byte character
		// (plenty of those in Polish text) is never split in half.
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n…(truncated)"
	}
	return "Report text:\n" + text
}
