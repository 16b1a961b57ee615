// Package vision produces per-page text for a document through an OCR
// backend. Backends return word-level geometry where they can; the page text
// is always assembled by geometry.Reconstruct, never by the backend's own
// block or paragraph grouping.
package vision

import "context"

// Backend is one OCR capability: given a document path, return one text
// string per page. The active backend is chosen once at process start.
type Backend interface {
	Name() string
	ExtractPages(ctx context.Context, path string) ([]string, error)
}
