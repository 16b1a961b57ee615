package vision

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGoogleExtractPagesReconstructsText(t *testing.T) {
	// Two words on one line, one word on the next. Returned out of order to
	// prove the output depends on geometry, not response order.
	body := `{"responses":[{"fullTextAnnotation":{"pages":[{"blocks":[{"paragraphs":[{"words":[
		{"boundingBox":{"vertices":[{"x":300,"y":102},{"x":340,"y":102},{"x":340,"y":114},{"x":300,"y":114}]},"symbols":[{"text":"1"},{"text":"2"},{"text":"."},{"text":"3"}]},
		{"boundingBox":{"vertices":[{"x":10,"y":160},{"x":80,"y":160},{"x":80,"y":172},{"x":10,"y":172}]},"symbols":[{"text":"R"},{"text":"B"},{"text":"C"}]},
		{"boundingBox":{"vertices":[{"x":10,"y":100},{"x":120,"y":100},{"x":120,"y":112},{"x":10,"y":112}]},"symbols":[{"text":"H"},{"text":"G"},{"text":"B"}]}
	]}]}]}]}}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images:annotate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "k" {
			t.Errorf("x-goog-api-key = %q, want %q", got, "k")
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("api key must not appear in the query string")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{APIKey: "k", BaseURL: srv.URL}, discardLogger())
	pages, err := g.ExtractPages(context.Background(), writeTempImage(t))
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	want := "HGB 12.3\nRBC"
	if pages[0] != want {
		t.Errorf("page text = %q, want %q", pages[0], want)
	}
}

func TestGoogleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"error":{"message":"quota exceeded"}}]}`))
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{APIKey: "k", BaseURL: srv.URL}, discardLogger())
	if _, err := g.ExtractPages(context.Background(), writeTempImage(t)); err == nil {
		t.Fatal("expected error from api error payload")
	}
}

func TestGoogleHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGoogle(GoogleConfig{APIKey: "k", BaseURL: srv.URL}, discardLogger())
	if _, err := g.ExtractPages(context.Background(), writeTempImage(t)); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestNewGoogleNoKey(t *testing.T) {
	if g := NewGoogle(GoogleConfig{}, discardLogger()); g != nil {
		t.Fatal("expected nil backend without api key")
	}
}
