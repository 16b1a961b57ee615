package geometry

import (
	"strings"
	"testing"
)

func word(t *testing.T, text string, x, y, h float64) Word {
	t.Helper()
	w, ok := NewWord(text, []Vertex{
		{X: x, Y: y},
		{X: x + 40, Y: y},
		{X: x + 40, Y: y + h},
		{X: x, Y: y + h},
	})
	if !ok {
		t.Fatalf("NewWord(%q) rejected valid geometry", text)
	}
	return w
}

func TestReconstructEmpty(t *testing.T) {
	if got := Reconstruct(nil, DefaultYTolerance); got != "" {
		t.Fatalf("Reconstruct(nil) = %q, want empty", got)
	}
}

func TestNewWordRejectsDegenerateGeometry(t *testing.T) {
	if _, ok := NewWord("x", nil); ok {
		t.Error("accepted empty polygon")
	}
	if _, ok := NewWord("", []Vertex{{X: 0, Y: 0}}); ok {
		t.Error("accepted empty text")
	}
	// zero-height polygon carries no usable vertical extent
	if _, ok := NewWord("x", []Vertex{{X: 0, Y: 5}, {X: 10, Y: 5}}); ok {
		t.Error("accepted zero-height polygon")
	}
}

func TestReconstructTwoBands(t *testing.T) {
	// Two horizontal bands more than the tolerance apart, supplied in a
	// deliberately scrambled order.
	words := []Word{
		word(t, "12.3", 200, 100, 12),
		word(t, "Hemoglobina", 10, 98, 12),
		word(t, "g/dl", 300, 102, 12),
		word(t, "4.56", 200, 140, 12),
		word(t, "Erytrocyty", 10, 141, 12),
	}

	got := Reconstruct(words, DefaultYTolerance)
	want := "Hemoglobina 12.3 g/dl\nErytrocyty 4.56"
	if got != want {
		t.Fatalf("Reconstruct = %q, want %q", got, want)
	}
}

func TestReconstructSameBandAnyOrder(t *testing.T) {
	// Words within tolerance of the band anchor end up on one line
	// regardless of supplied order.
	words := []Word{
		word(t, "c", 300, 55, 10),
		word(t, "a", 10, 50, 10),
		word(t, "b", 150, 58, 10),
	}
	got := Reconstruct(words, DefaultYTolerance)
	if got != "a b c" {
		t.Fatalf("Reconstruct = %q, want %q", got, "a b c")
	}
}

func TestReconstructTallWordToleranceScaling(t *testing.T) {
	// A height-40 header word tolerates up to 40*0.6=24px of jitter, well
	// past the default tolerance of 10.
	anchor := word(t, "Morfologia", 10, 100, 40)
	tall := word(t, "krwi", 200, 100, 40)
	tall.CenterY = anchor.CenterY + 20 // outside default tolerance, inside scaled

	got := Reconstruct([]Word{anchor, tall}, DefaultYTolerance)
	if strings.Contains(got, "\n") {
		t.Fatalf("tall word split into separate line: %q", got)
	}
	if got != "Morfologia krwi" {
		t.Fatalf("Reconstruct = %q, want %q", got, "Morfologia krwi")
	}
}

func TestReconstructShortWordOutsideDefaultTolerance(t *testing.T) {
	a := word(t, "a", 10, 100, 10)
	b := word(t, "b", 20, 120, 10) // 20px away, height too small to widen the band
	got := Reconstruct([]Word{a, b}, DefaultYTolerance)
	if got != "a\nb" {
		t.Fatalf("Reconstruct = %q, want %q", got, "a\nb")
	}
}
