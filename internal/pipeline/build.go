package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/kristesterWSB/MorfoLog/internal/common"
	"github.com/kristesterWSB/MorfoLog/internal/extract"
	"github.com/kristesterWSB/MorfoLog/internal/privacy"
	"github.com/kristesterWSB/MorfoLog/internal/reconcile"
	"github.com/kristesterWSB/MorfoLog/internal/vision"
)

// Build wires the full per-document pipeline from configuration. provider
// optionally forces which LLM goes first ("gemini" or "xai"); empty keeps
// gemini primary.
func Build(cfg *common.Config, provider string, logger *slog.Logger) (*Processor, error) {
	rast := vision.RasterizerConfig{
		Pdftoppm: cfg.Vision.Pdftoppm,
		DPI:      cfg.Vision.DPI,
	}
	var visionBackend vision.Backend
	switch cfg.Vision.Backend {
	case "google":
		g := vision.NewGoogle(vision.GoogleConfig{
			APIKey:     cfg.Vision.GoogleAPIKey,
			Timeout:    cfg.Vision.Timeout,
			Rasterizer: rast,
		}, logger)
		if g == nil {
			return nil, fmt.Errorf("google ocr backend selected without api key")
		}
		visionBackend = g
	case "tesseract":
		visionBackend = vision.NewTesseract(vision.TesseractConfig{
			Lang:       cfg.Vision.TesseractLang,
			Rasterizer: rast,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", cfg.Vision.Backend)
	}

	rules, err := privacy.LoadRules(cfg.Privacy.RulesPath)
	if err != nil {
		return nil, err
	}
	guard := privacy.NewGuard(privacy.Profile{
		Name:       cfg.Privacy.Name,
		Lastname:   cfg.Privacy.Lastname,
		NationalID: cfg.Privacy.NationalID,
		Address:    cfg.Privacy.Address,
	}, rules)

	var gemini, xai extract.Backend
	if b := extract.NewGemini(extract.GeminiConfig{
		APIKey:  cfg.LLM.GeminiAPIKey,
		Model:   cfg.LLM.GeminiModel,
		Timeout: cfg.LLM.Timeout,
	}, logger); b != nil {
		gemini = b
	}
	if b := extract.NewXAI(extract.XAIConfig{
		APIKey:  cfg.LLM.XAIAPIKey,
		Model:   cfg.LLM.XAIModel,
		Timeout: cfg.LLM.Timeout,
	}, logger); b != nil {
		xai = b
	}
	primary, secondary := gemini, xai
	if provider == "xai" {
		primary, secondary = xai, gemini
	}
	orchestrator := extract.NewOrchestrator(primary, secondary, cfg.LLM.StrictSchema, logger)

	norm, err := reconcile.LoadNormalization(cfg.Pipeline.RulesPath)
	if err != nil {
		return nil, err
	}
	flattener := reconcile.NewFlattener(norm, logger)

	return NewProcessor(cfg.Pipeline, visionBackend, guard, orchestrator, flattener, logger), nil
}
