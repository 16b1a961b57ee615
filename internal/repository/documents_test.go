package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/kristesterWSB/MorfoLog/constants"
	"github.com/kristesterWSB/MorfoLog/internal/common"
)

func openTestStore(t *testing.T) *Documents {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewDocuments(db, false, logger)
}

func TestDocumentsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	doc, err := store.Insert(ctx, "report_2024.pdf")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if doc.Status != constants.StatusPending {
		t.Errorf("status = %s, want Pending", doc.Status)
	}

	analysis := map[string]any{"Date": "2024-01-02", "Morfologia - HGB [g/dl]": 12.3}
	if err := store.MarkCompleted(ctx, doc.ID, analysis); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	got, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != constants.StatusCompleted {
		t.Errorf("status = %s, want Completed", got.Status)
	}
	if got.Analysis["Date"] != "2024-01-02" {
		t.Errorf("analysis = %v", got.Analysis)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want empty", got.Error)
	}
}

func TestDocumentsMarkError(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	doc, err := store.Insert(ctx, "broken.pdf")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.MarkError(ctx, doc.ID, "ocr failed"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	got, err := store.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != constants.StatusError || got.Error != "ocr failed" {
		t.Errorf("got %s / %q", got.Status, got.Error)
	}
	if got.Analysis != nil {
		t.Errorf("analysis = %v, want nil", got.Analysis)
	}
}

func TestDocumentsNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	if err := store.MarkError(ctx, uuid.New(), "x"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("MarkError err = %v, want ErrNotFound", err)
	}
}

func TestDocumentsList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if _, err := store.Insert(ctx, name); err != nil {
			t.Fatalf("Insert %s: %v", name, err)
		}
	}
	docs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("len = %d, want 3", len(docs))
	}
}

func TestRebind(t *testing.T) {
	pg := &Documents{postgres: true}
	got := pg.rebind("UPDATE documents SET status = ? WHERE id = ?")
	want := "UPDATE documents SET status = $1 WHERE id = $2"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &Documents{postgres: false}
	if q := lite.rebind("SELECT ?"); q != "SELECT ?" {
		t.Errorf("sqlite rebind = %q", q)
	}
}
