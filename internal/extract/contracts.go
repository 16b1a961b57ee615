// Package extract turns anonymized report text into structured JSON through
// interchangeable model backends, with a single cross-backend fallback.
package extract

import (
	"context"
	"errors"
)

// Backend is one structured-extraction capability. Implementations get
// exactly one attempt per document; the orchestrator owns the fallback.
type Backend interface {
	Name() string
	// Extract returns the raw model output for the given report text.
	// The output is expected, but not guaranteed, to contain JSON.
	Extract(ctx context.Context, text string) (string, error)
}

// Failure conditions of a single backend attempt. Both are fallback-eligible;
// they are distinguishable so logs can tell an empty completion from one
// that produced non-JSON.
var (
	ErrEmptyResponse     = errors.New("empty model response")
	ErrMalformedResponse = errors.New("malformed model response")
)
