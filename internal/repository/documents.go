package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kristesterWSB/MorfoLog/constants"
	"github.com/kristesterWSB/MorfoLog/internal/common"
)

// Document is one processed (or in-flight) lab report.
type Document struct {
	ID        uuid.UUID
	Filename  string
	Status    constants.DocumentStatus
	Analysis  map[string]any // flat record, nil until completed
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Documents persists processing records.
type Documents struct {
	db       *sql.DB
	postgres bool
	logger   *slog.Logger
}

func NewDocuments(db *sql.DB, postgres bool, logger *slog.Logger) *Documents {
	if logger == nil {
		logger = slog.Default()
	}
	return &Documents{db: db, postgres: postgres, logger: logger}
}

// rebind converts ? placeholders to $N for postgres.
func (r *Documents) rebind(query string) string {
	if !r.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Insert records a new document in Pending state and returns it.
func (r *Documents) Insert(ctx context.Context, filename string) (*Document, error) {
	now := time.Now().UTC()
	doc := &Document{
		ID:        uuid.New(),
		Filename:  filename,
		Status:    constants.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO documents (id, filename, status, analysis, error, created_at, updated_at)
		 VALUES (?, ?, ?, NULL, '', ?, ?)`),
		doc.ID.String(), doc.Filename, string(doc.Status),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// MarkCompleted stores the flat record and flips the status.
func (r *Documents) MarkCompleted(ctx context.Context, id uuid.UUID, analysis map[string]any) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return r.update(ctx, id, constants.StatusCompleted, string(raw), "")
}

// MarkError records the failure reason.
func (r *Documents) MarkError(ctx context.Context, id uuid.UUID, msg string) error {
	return r.update(ctx, id, constants.StatusError, "", msg)
}

func (r *Documents) update(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, analysis, errMsg string) error {
	var analysisArg any
	if analysis != "" {
		analysisArg = analysis
	}
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE documents SET status = ?, analysis = ?, error = ?, updated_at = ? WHERE id = ?`),
		string(status), analysisArg, errMsg, time.Now().UTC().Format(time.RFC3339Nano), id.String(),
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return nil
}

// GetByID fetches a single document.
func (r *Documents) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, filename, status, analysis, error, created_at, updated_at
		 FROM documents WHERE id = ?`), id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return doc, err
}

// List returns all documents, newest first.
func (r *Documents) List(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, status, analysis, error, created_at, updated_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc                  Document
		id, status           string
		analysis             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &doc.Filename, &status, &analysis, &doc.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", id, err)
	}
	doc.ID = parsed
	doc.Status = constants.DocumentStatus(status)
	if analysis.Valid && analysis.String != "" {
		if err := json.Unmarshal([]byte(analysis.String), &doc.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis for %s: %w", id, err)
		}
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &doc, nil
}
