package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Orchestrator performs the primary/secondary fallback as explicit
// sequential composition: the primary backend gets one attempt, and on any
// failure (transport error, policy refusal, malformed output) the secondary
// gets one attempt with the identical request. There is no retry loop.
type Orchestrator struct {
	primary   Backend
	secondary Backend
	strict    bool
	logger    *slog.Logger
}

// NewOrchestrator wires the two backends. Either may be nil when its
// credentials are absent; a nil backend is never attempted. strict enables
// JSON-schema validation of the parsed result.
func NewOrchestrator(primary, secondary Backend, strict bool, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{primary: primary, secondary: secondary, strict: strict, logger: logger}
}

// Extract runs the fallback protocol and returns the normalized result.
func (o *Orchestrator) Extract(ctx context.Context, text string) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	var lastErr error
	for _, b := range []Backend{o.primary, o.secondary} {
		if b == nil {
			continue
		}

		o.logger.Info("extract.attempt", "req_id", rid, "backend", b.Name(), "text_len", len(text))
		raw, err := b.Extract(ctx, text)
		if err != nil {
			o.logger.Warn("extract.backend_failed",
				"req_id", rid, "backend", b.Name(), "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			lastErr = fmt.Errorf("%s: %w", b.Name(), err)
			continue
		}

		data, err := ProcessResponse(raw)
		if err != nil {
			o.logger.Warn("extract.response_rejected",
				"req_id", rid, "backend", b.Name(), "error", err, "raw_bytes", len(raw),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			lastErr = fmt.Errorf("%s: %w", b.Name(), err)
			continue
		}

		if o.strict {
			if err := ValidateReport(data); err != nil {
				o.logger.Warn("extract.schema_validation_failed",
					"req_id", rid, "backend", b.Name(), "error", err,
				)
				lastErr = fmt.Errorf("%s: %w", b.Name(), err)
				continue
			}
		}

		o.logger.Info("extract.ok",
			"req_id", rid, "backend", b.Name(), "keys", len(data),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return data, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("no extraction backend configured")
	}
	return nil, fmt.Errorf("all extraction backends failed: %w", lastErr)
}
