package vision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/kristesterWSB/MorfoLog/internal/geometry"
)

// TesseractConfig for the local OCR backend.
type TesseractConfig struct {
	Lang string // default "pol"

	Rasterizer RasterizerConfig
}

// Tesseract is the offline backend. It prefers word bounding boxes so page
// text goes through the same geometric reconstruction as the remote backend;
// when box extraction yields nothing it falls back to tesseract's plain text.
type Tesseract struct {
	cfg        TesseractConfig
	rasterizer *Rasterizer
	logger     *slog.Logger
}

func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if cfg.Lang == "" {
		cfg.Lang = "pol"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{
		cfg:        cfg,
		rasterizer: NewRasterizer(cfg.Rasterizer),
		logger:     logger,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) ExtractPages(ctx context.Context, path string) ([]string, error) {
	images, cleanup, err := t.rasterizer.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	defer cleanup()

	pages := make([]string, 0, len(images))
	for i, img := range images {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		text, err := t.recognizePage(img)
		if err != nil {
			return nil, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		t.logger.Debug("vision.tesseract.page_ok",
			"page", i+1, "chars", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		pages = append(pages, text)
	}
	return pages, nil
}

func (t *Tesseract) recognizePage(imgPath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imgPath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := client.SetLanguage(t.cfg.Lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil && len(boxes) > 0 {
		words := make([]geometry.Word, 0, len(boxes))
		for _, b := range boxes {
			w, ok := geometry.NewWord(strings.TrimSpace(b.Word), []geometry.Vertex{
				{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y)},
				{X: float64(b.Box.Max.X), Y: float64(b.Box.Max.Y)},
			})
			if !ok {
				continue
			}
			words = append(words, w)
		}
		if len(words) > 0 {
			return geometry.Reconstruct(words, geometry.DefaultYTolerance), nil
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
