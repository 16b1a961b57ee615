package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kristesterWSB/MorfoLog/constants"
	"github.com/kristesterWSB/MorfoLog/internal/common"
	"github.com/kristesterWSB/MorfoLog/internal/repository"
	"github.com/kristesterWSB/MorfoLog/internal/series"
)

type analyzeRequest struct {
	FilePaths []string `json:"file_paths"`
}

type analyzeResult struct {
	File   string         `json:"file"`
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

type analyzeError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type analyzeResponse struct {
	ProcessedCount int             `json:"processed_count"`
	ErrorCount     int             `json:"error_count"`
	Results        []analyzeResult `json:"results"`
	Errors         []analyzeError  `json:"errors"`
}

// handleAnalyze processes each requested file independently. A per-file
// failure lands in errors; the batch always returns 200 with the aggregate.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.FilePaths) == 0 {
		s.writeError(w, http.StatusBadRequest, "file_paths is required")
		return
	}

	ctx := r.Context()
	resp := analyzeResponse{Results: []analyzeResult{}, Errors: []analyzeError{}}
	for _, path := range req.FilePaths {
		doc, err := s.docs.Insert(ctx, filepath.Base(path))
		if err != nil {
			s.logger.Error("analyze.record_failed", "file", path, "err", err)
			resp.ErrorCount++
			resp.Errors = append(resp.Errors, analyzeError{File: path, Error: "failed to record document"})
			continue
		}

		flat, err := s.processor.ProcessFile(ctx, path)
		if err != nil {
			if merr := s.docs.MarkError(ctx, doc.ID, err.Error()); merr != nil {
				s.logger.Error("analyze.mark_error_failed", "id", doc.ID, "err", merr)
			}
			resp.ErrorCount++
			resp.Errors = append(resp.Errors, analyzeError{File: path, Error: err.Error()})
			continue
		}

		if merr := s.docs.MarkCompleted(ctx, doc.ID, flat); merr != nil {
			s.logger.Error("analyze.mark_completed_failed", "id", doc.ID, "err", merr)
		}
		resp.ProcessedCount++
		resp.Results = append(resp.Results, analyzeResult{
			File:   path,
			Status: string(constants.StatusCompleted),
			Data:   flat,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type documentResponse struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Status    string         `json:"status"`
	Analysis  map[string]any `json:"analysis,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func toDocumentResponse(d *repository.Document) documentResponse {
	return documentResponse{
		ID:        d.ID.String(),
		Filename:  d.Filename,
		Status:    string(d.Status),
		Analysis:  d.Analysis,
		Error:     d.Error,
		CreatedAt: d.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.logger.Error("documents.list_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.logger.Error("documents.get_failed", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	s.writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// handleExport builds the time-series spreadsheet from every completed
// document on record.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.logger.Error("export.list_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	asm := series.NewAssembler(s.logger)
	for _, d := range docs {
		if d.Status == constants.StatusCompleted {
			asm.Add(d.Analysis)
		}
	}
	if asm.Len() == 0 {
		s.writeError(w, http.StatusNotFound, "no completed documents to export")
		return
	}

	data, err := asm.WriteXLSX()
	if err != nil {
		s.logger.Error("export.xlsx_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build spreadsheet")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="wyniki.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := repository.HealthCheck(r.Context(), s.db, 2*time.Second); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http.encode_failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
