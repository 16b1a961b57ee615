package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// GeminiConfig for the Gemini backend.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // default https://generativelanguage.googleapis.com/v1beta
	Model   string // e.g. "gemini-2.0-flash-lite"
	Timeout time.Duration
}

// Gemini calls the generateContent REST endpoint. Unlike the chat-completions
// providers it reports safety metadata per candidate; any non-STOP finish
// reason or an empty candidate list is a failure carrying the reported
// reason, which is what triggers the orchestrator's fallback.
type Gemini struct {
	cfg    GeminiConfig
	http   *http.Client
	logger *slog.Logger
}

// NewGemini returns nil when no API key is configured: an unconfigured
// backend is permanently unavailable, not a per-call error.
func NewGemini(cfg GeminiConfig, logger *slog.Logger) *Gemini {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-lite"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Extract(ctx context.Context, text string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{
				{"text": BuildSystemPrompt() + "\n\n" + BuildUserPrompt(text)},
			}},
		},
	}

	// key goes in a header so it never shows up in request logs
	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	headers := map[string]string{"x-goog-api-key": g.cfg.APIKey}
	raw, err := sendJSON(ctx, g.http, url, body, headers, g.logger)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if r := resp.PromptFeedback.BlockReason; r != "" {
			return "", fmt.Errorf("gemini blocked prompt: %s", r)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		return "", fmt.Errorf("gemini non-stop finish reason: %s", cand.FinishReason)
	}

	var out string
	for _, p := range cand.Content.Parts {
		out += p.Text
	}
	return out, nil
}
