// Package geometry rebuilds reading-order text from word-level OCR output.
//
// Vision backends group words into paragraphs and blocks using layout
// heuristics that routinely merge or split table columns. Reconstruction
// here ignores that grouping entirely and orders words by their coordinates
// alone, which recovers the row-wise reading order that tabular lab reports
// require.
package geometry

import (
	"sort"
	"strings"
)

// DefaultYTolerance is the baseline vertical band, in pixels, within which
// two words are considered part of the same line.
const DefaultYTolerance = 10

// Vertex is one corner of a word's bounding polygon.
type Vertex struct {
	X float64
	Y float64
}

// Word is a single OCR token with the geometry needed for line clustering.
// It lives only for the duration of one page's reconstruction.
type Word struct {
	Text    string
	CenterY float64
	MinX    float64
	Height  float64
}

// NewWord derives a Word from its text and bounding polygon. It returns
// false when the polygon carries no usable geometry.
func NewWord(text string, poly []Vertex) (Word, bool) {
	if text == "" || len(poly) == 0 {
		return Word{}, false
	}
	minX, minY := poly[0].X, poly[0].Y
	maxY := poly[0].Y
	for _, v := range poly[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	h := maxY - minY
	if h <= 0 {
		return Word{}, false
	}
	return Word{
		Text:    text,
		CenterY: minY + h/2,
		MinX:    minX,
		Height:  h,
	}, true
}

// Reconstruct clusters words into lines by vertical position and merges each
// line left to right. yTolerance is the minimum vertical band; taller words
// (headers) tolerate proportionally more jitter.
func Reconstruct(words []Word, yTolerance float64) string {
	if len(words) == 0 {
		return ""
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY < sorted[j].CenterY
	})

	var lines []string
	current := []Word{sorted[0]}
	anchorY := sorted[0].CenterY

	for _, w := range sorted[1:] {
		tol := yTolerance
		if t := w.Height * 0.6; t > tol {
			tol = t
		}
		if abs(w.CenterY-anchorY) <= tol {
			current = append(current, w)
			continue
		}
		lines = append(lines, joinLine(current))
		current = []Word{w}
		anchorY = w.CenterY
	}
	lines = append(lines, joinLine(current))

	return strings.Join(lines, "\n")
}

// joinLine orders a vertical cluster by X and joins it with single spaces.
func joinLine(ws []Word) string {
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].MinX < ws[j].MinX
	})
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
