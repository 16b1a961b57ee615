package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kristesterWSB/MorfoLog/constants"
)

// RasterizerConfig configures PDF rasterization.
type RasterizerConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // default 300
	MaxPages int    // 0 = no limit
}

// Rasterizer turns a document into one image file per page. PDFs go through
// pdftoppm; image files pass through as a single page.
type Rasterizer struct {
	cfg    RasterizerConfig
	runner Runner
}

func NewRasterizer(cfg RasterizerConfig) *Rasterizer {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Rasterizer{cfg: cfg, runner: execRunner{}}
}

// Pages returns per-page image paths and a cleanup func for the temp files.
// cleanup is non-nil whenever err is nil.
func (r *Rasterizer) Pages(ctx context.Context, path string) ([]string, func(), error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.IMAGE:
		return []string{path}, func() {}, nil
	case constants.PDF:
		return r.renderPDF(ctx, path)
	default:
		return nil, nil, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (r *Rasterizer) renderPDF(ctx context.Context, path string) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "morfolog-pp-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", r.cfg.DPI), "-png", path, prefix)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm: %w (%s)", err, strings.TrimSpace(string(errb)))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm produced no images")
	}
	return matches, cleanup, nil
}
