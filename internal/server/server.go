package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/kristesterWSB/MorfoLog/internal/repository"
)

// FileProcessor runs one document through OCR, anonymization and extraction.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (map[string]any, error)
}

// Server exposes the analysis pipeline over HTTP JSON.
type Server struct {
	docs      *repository.Documents
	db        *sql.DB
	processor FileProcessor
	logger    *slog.Logger
}

func New(docs *repository.Documents, db *sql.DB, processor FileProcessor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{docs: docs, db: db, processor: processor, logger: logger}
}

// Handler wires the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
