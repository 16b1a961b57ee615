package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kristesterWSB/MorfoLog/internal/geometry"
)

// GoogleConfig for the Cloud Vision backend.
type GoogleConfig struct {
	APIKey  string
	BaseURL string // default https://vision.googleapis.com/v1
	Timeout time.Duration

	Rasterizer RasterizerConfig
}

// Google sends each page image to the images:annotate endpoint with
// DOCUMENT_TEXT_DETECTION and rebuilds the page text from word geometry.
// The API's own block/paragraph grouping is discarded: it scrambles tabular
// layouts, which is the whole reason geometry.Reconstruct exists.
type Google struct {
	cfg        GoogleConfig
	http       *http.Client
	rasterizer *Rasterizer
	logger     *slog.Logger
}

// NewGoogle returns nil when no API key is configured.
func NewGoogle(cfg GoogleConfig, logger *slog.Logger) *Google {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://vision.googleapis.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{
		cfg:        cfg,
		http:       &http.Client{Timeout: cfg.Timeout},
		rasterizer: NewRasterizer(cfg.Rasterizer),
		logger:     logger,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) ExtractPages(ctx context.Context, path string) ([]string, error) {
	images, cleanup, err := g.rasterizer.Pages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	defer cleanup()

	pages := make([]string, 0, len(images))
	for i, img := range images {
		start := time.Now()
		text, err := g.annotateImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("annotate page %d: %w", i+1, err)
		}
		g.logger.Debug("vision.google.page_ok",
			"page", i+1, "chars", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		pages = append(pages, text)
	}
	return pages, nil
}

// annotate response, reduced to the fields the reconstruction needs.
type annotateResponse struct {
	Responses []struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		FullTextAnnotation struct {
			Pages []struct {
				Blocks []struct {
					Paragraphs []struct {
						Words []struct {
							BoundingBox struct {
								Vertices []struct {
									X float64 `json:"x"`
									Y float64 `json:"y"`
								} `json:"vertices"`
							} `json:"boundingBox"`
							Symbols []struct {
								Text string `json:"text"`
							} `json:"symbols"`
						} `json:"words"`
					} `json:"paragraphs"`
				} `json:"blocks"`
			} `json:"pages"`
		} `json:"fullTextAnnotation"`
	} `json:"responses"`
}

func (g *Google) annotateImage(ctx context.Context, imgPath string) (string, error) {
	content, err := os.ReadFile(imgPath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	body := map[string]any{
		"requests": []map[string]any{{
			"image":    map[string]any{"content": base64.StdEncoding.EncodeToString(content)},
			"features": []map[string]any{{"type": "DOCUMENT_TEXT_DETECTION"}},
		}},
	}
	raw, err := g.post(ctx, g.cfg.BaseURL+"/images:annotate", body)
	if err != nil {
		return "", err
	}

	var resp annotateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode annotate response: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("empty annotate response")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision api error: %s", r.Error.Message)
	}

	var words []geometry.Word
	for _, page := range r.FullTextAnnotation.Pages {
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				for _, w := range para.Words {
					var sb strings.Builder
					for _, s := range w.Symbols {
						sb.WriteString(s.Text)
					}
					poly := make([]geometry.Vertex, 0, len(w.BoundingBox.Vertices))
					for _, v := range w.BoundingBox.Vertices {
						poly = append(poly, geometry.Vertex{X: v.X, Y: v.Y})
					}
					if word, ok := geometry.NewWord(sb.String(), poly); ok {
						words = append(words, word)
					}
				}
			}
		}
	}
	return geometry.Reconstruct(words, geometry.DefaultYTolerance), nil
}

func (g *Google) post(ctx context.Context, url string, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Key goes in a header so it never shows up in request logs.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			g.logger.Warn("vision response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("vision status %d: %s", resp.StatusCode, truncate(string(raw), 2<<10))
	}
	return raw, nil
}
