package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "uba-horarios/internal/errors"
)

func newTestClient() *Client {
	return NewClient(5*time.Second, 0, 0, 2)
}

func TestGetDocument(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1 class="materia">Análisis II</h1></body></html>`))
	}))
	defer srv.Close()

	doc, err := newTestClient().GetDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}

	if got := doc.Find("h1.materia").Text(); got != "Análisis II" {
		t.Errorf("h1.materia = %q", got)
	}
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var scraperErr *apperrors.ScraperError
	if !errors.As(err, &scraperErr) || scraperErr.StatusCode != 404 {
		t.Errorf("want ScraperError with 404, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("404 was requested %d times, want 1", got)
	}
}

func TestGetRetriesServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newTestClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error after retries: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := calls.Load(); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}
