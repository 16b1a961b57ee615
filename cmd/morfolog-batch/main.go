package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/kristesterWSB/MorfoLog/constants"
	"github.com/kristesterWSB/MorfoLog/internal/common"
	"github.com/kristesterWSB/MorfoLog/internal/pipeline"
	"github.com/kristesterWSB/MorfoLog/internal/series"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory of lab report scans to process (required)")
		out      = flag.String("out", "", "output XLSX path (defaults to <dir>/wyniki.xlsx)")
		provider = flag.String("provider", "", "force primary LLM backend: gemini or xai")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "wyniki.xlsx")
	}
	if *provider != "" && *provider != "gemini" && *provider != "xai" {
		printError("Error: --provider must be gemini or xai\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}
	cfg := common.LoadConfig()
	if cfg.Pipeline.ArtifactDir == "." {
		cfg.Pipeline.ArtifactDir = *dir
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	proc, err := pipeline.Build(cfg, *provider, logger)
	if err != nil {
		logger.Error("pipeline setup failed", "err", err)
		os.Exit(1)
	}

	files, err := listInputFiles(*dir)
	if err != nil {
		logger.Error("scan directory failed", "dir", *dir, "err", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Error("no reports found", "dir", *dir)
		os.Exit(1)
	}

	ctx := context.Background()
	asm := series.NewAssembler(logger)
	var failed int
	for _, path := range files {
		flat, err := proc.ProcessFile(ctx, path)
		if err != nil {
			logger.Error("document failed", "file", path, "err", err)
			failed++
			continue
		}
		asm.Add(flat)
	}

	logger.Info("batch done", "total", len(files), "ok", asm.Len(), "failed", failed)
	if asm.Len() == 0 {
		logger.Error("no documents processed, skipping export")
		os.Exit(1)
	}

	data, err := asm.WriteXLSX()
	if err != nil {
		logger.Error("xlsx build failed", "err", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("xlsx write failed", "path", *out, "err", err)
		os.Exit(1)
	}
	logger.Info("xlsx written", "path", *out, "rows", asm.Len())
}

// listInputFiles returns every processable document in dir (non-recursive),
// sorted by name.
func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if constants.MapExtToFormat(ext) == "" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
