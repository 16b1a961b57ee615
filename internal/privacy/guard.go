// Package privacy scrubs personally identifying text from OCR output before
// any content leaves the local process.
package privacy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Redaction markers. Downstream prompts tolerate these tokens; the extraction
// backends never see the original values.
const (
	MarkerRedacted = "[REDACTED]"
	MarkerPESEL    = "[REDACTED_PESEL]"
	MarkerRole     = "[REDACTED_ROLE_INFO]"
	MarkerDOB      = "[REDACTED_DOB]"
)

// Profile carries the known identifying strings for one person. All fields
// are optional; absent fields are skipped, never treated as errors.
type Profile struct {
	Name       string
	Lastname   string
	NationalID string
	Address    string
}

// Guard applies exact-term, generic-pattern, and trailing-page noise
// redaction to page-indexed OCR text. Immutable after construction.
type Guard struct {
	terms      []*regexp.Regexp
	rePESEL    *regexp.Regexp
	reRole     *regexp.Regexp
	reDOB      *regexp.Regexp
	noiseLines *regexp.Regexp
}

var (
	rePESEL      = regexp.MustCompile(`\b\d{11}\b`)
	reAddrSplit  = regexp.MustCompile(`[\s,]+`)
	reDigitsOnly = regexp.MustCompile(`^\d+$`)
)

// NewGuard builds a Guard from a profile and rules. Pass DefaultRules()
// unless a curated override file is in play.
func NewGuard(profile Profile, rules Rules) *Guard {
	values := []string{profile.Name, profile.Lastname, profile.NationalID}

	// Address fragments redact individually so a street name or city leaks
	// nowhere even when the full address never appears verbatim. Short and
	// purely numeric tokens stay: house numbers also appear in results.
	for _, part := range reAddrSplit.Split(profile.Address, -1) {
		if len(part) > 3 && !reDigitsOnly.MatchString(part) {
			values = append(values, part)
		}
	}

	seen := make(map[string]struct{}, len(values))
	var terms []*regexp.Regexp
	for _, v := range values {
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		// No \b anchors: RE2's \b is ASCII-only and never matches at a
		// rune like ł or Ś, which Polish names end in all the time. The
		// whole-word check happens per occurrence in redactTerm instead.
		terms = append(terms, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(v)))
	}
	// Longer terms first so e.g. a compound street name wins over its parts.
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i].String()) > len(terms[j].String())
	})

	roleLabels := rules.RoleLabels
	if len(roleLabels) == 0 {
		roleLabels = DefaultRules().RoleLabels
	}
	dobLabel := rules.DOBLabel
	if dobLabel == "" {
		dobLabel = DefaultRules().DOBLabel
	}

	return &Guard{
		terms:      terms,
		rePESEL:    rePESEL,
		reRole:     regexp.MustCompile(`(?i)\b(` + strings.Join(roleLabels, "|") + `)\b\s*:?`),
		reDOB:      regexp.MustCompile(`(?i)\b` + dobLabel + `[\s.:]*\d{4}-\d{2}-\d{2}`),
		noiseLines: compileNoise(rules.NoisePatterns),
	}
}

func compileNoise(patterns []string) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)` + strings.Join(patterns, "|"))
}

// Anonymize redacts every page and rejoins them with newlines. Exact terms
// run before the generic patterns: some generic patterns match across the
// boundaries the term replacements leave behind. The structural noise lines
// are stripped only on the last page; earlier pages may legitimately contain
// similar-looking text.
func (g *Guard) Anonymize(pages []string) string {
	out := make([]string, 0, len(pages))
	for i, page := range pages {
		text := page

		for _, re := range g.terms {
			text = redactTerm(text, re, MarkerRedacted)
		}

		text = g.rePESEL.ReplaceAllString(text, MarkerPESEL)
		text = g.reRole.ReplaceAllString(text, MarkerRole)
		text = g.reDOB.ReplaceAllString(text, MarkerDOB)

		if i == len(pages)-1 && g.noiseLines != nil {
			var kept []string
			for _, line := range strings.Split(text, "\n") {
				if g.noiseLines.MatchString(line) {
					continue
				}
				kept = append(kept, line)
			}
			text = strings.Join(kept, "\n")
		}

		out = append(out, text)
	}
	return strings.Join(out, "\n")
}

// redactTerm replaces every whole-word occurrence of the term with the
// marker. Occurrences embedded in a longer word stay untouched: the partial
// match inside "Janusz" must survive a profile name "Jan".
func redactTerm(text string, re *regexp.Regexp, marker string) string {
	matches := re.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !wholeWord(text, m[0], m[1]) {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(marker)
		last = m[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// wholeWord reports whether text[start:end] is bounded by non-word runes
// (or the text edges) on both sides, with letters decoded as runes so the
// check holds for diacritics too.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
