package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// XAIConfig for the xAI backend (OpenAI-compatible chat completions).
type XAIConfig struct {
	APIKey  string
	BaseURL string // default https://api.x.ai/v1
	Model   string // e.g. "grok-beta"
	Timeout time.Duration
}

// XAI is the secondary extraction backend.
type XAI struct {
	cfg    XAIConfig
	http   *http.Client
	logger *slog.Logger
}

// NewXAI returns nil when no API key is configured.
func NewXAI(cfg XAIConfig, logger *slog.Logger) *XAI {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "grok-beta"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XAI{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (x *XAI) Name() string { return "xai" }

func (x *XAI) Extract(ctx context.Context, text string) (string, error) {
	body := map[string]any{
		"model": x.cfg.Model,
		"messages": []map[string]any{
			{"role": "system", "content": BuildSystemPrompt()},
			{"role": "user", "content": BuildUserPrompt(text)},
		},
	}

	endpoint := strings.TrimRight(x.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + x.cfg.APIKey}
	raw, err := sendJSON(ctx, x.http, endpoint, body, headers, x.logger)
	if err != nil {
		return "", fmt.Errorf("xai request: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode xai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in xai response")
	}
	choice := cc.Choices[0]
	if choice.FinishReason != "" && choice.FinishReason != "stop" {
		return "", fmt.Errorf("xai non-stop finish reason: %s", choice.FinishReason)
	}
	return choice.Message.Content, nil
}
