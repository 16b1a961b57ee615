package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildUserPromptShortTextUntouched(t *testing.T) {
	got := BuildUserPrompt("  Morfologia krwi  ")
	want := "Report text:\nMorfologia krwi"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildUserPromptTruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte shifts every two-byte rune to an odd
	// offset, so the 12000-byte cap lands mid-character unless the
	// cut backs off.
	text := "x" + strings.Repeat("ł", 9000)
	got := BuildUserPrompt(text)

	if !utf8.ValidString(got) {
		t.Fatal("truncated prompt is not valid UTF-8")
	}
	if !strings.HasSuffix(got, "\n…(truncated)") {
		t.Fatalf("expected truncation marker, got tail %q", got[len(got)-30:])
	}
	body := strings.TrimSuffix(strings.TrimPrefix(got, "Report text:\n"), "\n…(truncated)")
	if len(body) > 12000 {
		t.Fatalf("body exceeds cap: %d bytes", len(body))
	}
	if r, _ := utf8.DecodeLastRuneInString(body); r != 'ł' {
		t.Fatalf("expected body to end on an intact rune, got %q", r)
	}
}
