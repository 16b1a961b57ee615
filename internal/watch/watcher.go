// Package watch feeds newly scanned reports into the pipeline as they land
// in an inbox directory.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kristesterWSB/MorfoLog/constants"
	"github.com/kristesterWSB/MorfoLog/internal/repository"
)

// FileProcessor runs one document through the pipeline.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (map[string]any, error)
}

type Config struct {
	Dir      string
	Debounce time.Duration // coalesce rapid write bursts while a scan is still being copied in
}

// Watcher processes every supported file that appears under Dir and records
// the outcome in the document store, same as a POST /analyze for that file.
type Watcher struct {
	cfg       Config
	docs      *repository.Documents
	processor FileProcessor
	logger    *slog.Logger
}

func New(cfg Config, docs *repository.Documents, processor FileProcessor, logger *slog.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, docs: docs, processor: processor, logger: logger}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Dir == "" {
		return errors.New("watch directory not configured")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return err
	}
	w.logger.Info("watch.started", "dir", w.cfg.Dir)

	pending := map[string]struct{}{}
	var timer *time.Timer
	settled := make(chan struct{}, 1)
	flush := func() {
		select {
		case settled <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-fw.Events:
			if !supported(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending[e.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.Debounce, flush)
		case <-settled:
			for path := range pending {
				delete(pending, path)
				w.processOne(ctx, path)
			}
		case err := <-fw.Errors:
			w.logger.Error("watch.error", "err", err)
		}
	}
}

func (w *Watcher) processOne(ctx context.Context, path string) {
	doc, err := w.docs.Insert(ctx, filepath.Base(path))
	if err != nil {
		w.logger.Error("watch.record_failed", "file", path, "err", err)
		return
	}
	flat, err := w.processor.ProcessFile(ctx, path)
	if err != nil {
		w.logger.Error("watch.document_failed", "file", path, "err", err)
		if merr := w.docs.MarkError(ctx, doc.ID, err.Error()); merr != nil {
			w.logger.Error("watch.mark_error_failed", "id", doc.ID, "err", merr)
		}
		return
	}
	if err := w.docs.MarkCompleted(ctx, doc.ID, flat); err != nil {
		w.logger.Error("watch.mark_completed_failed", "id", doc.ID, "err", err)
		return
	}
	w.logger.Info("watch.document_ok", "file", path, "id", doc.ID)
}

func supported(path string) bool {
	return constants.MapExtToFormat(filepath.Ext(path)) != ""
}
