package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kristesterWSB/MorfoLog/internal/common"
	"github.com/kristesterWSB/MorfoLog/internal/pipeline"
	"github.com/kristesterWSB/MorfoLog/internal/repository"
	"github.com/kristesterWSB/MorfoLog/internal/server"
	"github.com/kristesterWSB/MorfoLog/internal/watch"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("database migration failed", "err", err)
		os.Exit(1)
	}

	proc, err := pipeline.Build(cfg, "", logger)
	if err != nil {
		logger.Error("pipeline setup failed", "err", err)
		os.Exit(1)
	}

	isPostgres := strings.HasPrefix(cfg.Database.DSN, "postgres")
	docs := repository.NewDocuments(db, isPostgres, logger)
	srv := server.New(docs, db, proc, logger)

	if cfg.Pipeline.WatchDir != "" {
		watcher := watch.New(watch.Config{
			Dir:      cfg.Pipeline.WatchDir,
			Debounce: cfg.Pipeline.WatchDebounce,
		}, docs, proc, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("stopped")
}
