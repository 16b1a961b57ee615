package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kristesterWSB/MorfoLog/internal/common"
	"github.com/kristesterWSB/MorfoLog/internal/vision"
)

// Anonymizer removes personal data from OCR pages before any text leaves the
// process.
type Anonymizer interface {
	Anonymize(pages []string) string
}

// ReportExtractor turns anonymized report text into a structured result.
type ReportExtractor interface {
	Extract(ctx context.Context, text string) (map[string]any, error)
}

// RecordFlattener reduces a structured result to one flat record per document.
type RecordFlattener interface {
	Flatten(result map[string]any) map[string]any
}

// Processor runs the per-document pipeline: OCR, anonymization, extraction,
// flattening. Along the way it drops diagnostic artifacts (raw OCR text,
// anonymized text, extracted JSON) under cfg.ArtifactDir, keyed by the source
// base filename. Artifacts are write-only diagnostics; a failed write is
// logged and never fails the document.
type Processor struct {
	cfg       common.PipelineConfig
	vision    vision.Backend
	guard     Anonymizer
	extractor ReportExtractor
	flattener RecordFlattener
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewProcessor(
	cfg common.PipelineConfig,
	visionBackend vision.Backend,
	guard Anonymizer,
	extractor ReportExtractor,
	flattener RecordFlattener,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.DocumentDelay > 0 {
		limit = rate.Every(cfg.DocumentDelay)
	}
	return &Processor{
		cfg:       cfg,
		vision:    visionBackend,
		guard:     guard,
		extractor: extractor,
		flattener: flattener,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// ProcessFile runs one document through the pipeline and returns its flat
// record. Documents are independent: any error here ends this document only,
// callers continue with the rest of their batch.
func (p *Processor) ProcessFile(ctx context.Context, path string) (map[string]any, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return nil, common.NewAppError("FILE_NOT_FOUND", fmt.Sprintf("input file %q", path), common.ErrNotFound)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	pages, err := p.vision.ExtractPages(ctx, path)
	if err != nil {
		p.logger.Error("pipeline.ocr.failed", "file", path, "backend", p.vision.Name(), "err", err)
		return nil, fmt.Errorf("ocr %q: %w", path, err)
	}
	p.writeArtifact("ocr_results", base+".txt", []byte(strings.Join(pages, "\n\n")))

	cleaned := p.guard.Anonymize(pages)
	p.writeArtifact("cleaned_results", base+".txt", []byte(cleaned))

	// extraction calls are rate limited so consecutive documents keep a
	// polite spacing toward the LLM providers
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := p.extractor.Extract(ctx, cleaned)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "file", path, "err", err)
		return nil, fmt.Errorf("extract %q: %w", path, err)
	}
	if raw, merr := json.MarshalIndent(result, "", "  "); merr == nil {
		p.writeArtifact("json_results", base+".json", raw)
	}

	flat := p.flattener.Flatten(result)
	if flat == nil {
		return nil, common.NewAppError("UNRECOGNIZED_SHAPE",
			fmt.Sprintf("extraction for %q has no recognizable report shape", path),
			common.ErrInvalidInput)
	}

	p.logger.Info("pipeline.document.ok",
		"file", path,
		"pages", len(pages),
		"fields", len(flat),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return flat, nil
}

func (p *Processor) writeArtifact(dir, name string, data []byte) {
	full := filepath.Join(p.cfg.ArtifactDir, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		p.logger.Warn("pipeline.artifact_write_failed", "dir", full, "err", err)
		return
	}
	if err := os.WriteFile(filepath.Join(full, name), data, 0o644); err != nil {
		p.logger.Warn("pipeline.artifact_write_failed", "path", filepath.Join(full, name), "err", err)
	}
}
