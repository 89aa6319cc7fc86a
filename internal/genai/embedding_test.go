package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"uba-horarios/internal/ratelimit"
)

func testClient(baseURL string) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey:      "test-key",
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		rateLimiter: ratelimit.NewPerMinute(GeminiAPIRateLimit),
	}
}

func TestEmbedSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.String(), GeminiEmbeddingModel) {
			t.Errorf("URL %s does not reference the embedding model", r.URL)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Content.Parts) != 1 || req.Content.Parts[0].Text != "Análisis Matemático" {
			t.Errorf("request parts = %+v", req.Content.Parts)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)
	values, err := client.Embed(context.Background(), "Análisis Matemático")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(values) != 3 || values[1] != 0.2 {
		t.Errorf("values = %v", values)
	}
}

func TestEmbedRetriesRateLimited(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{0.5}},
		})
	}))
	defer server.Close()

	// Short deadline keeps the backoff from stretching the test; the first
	// retry fires after ~2s of jittered delay.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := testClient(server.URL)
	values, err := client.Embed(ctx, "Probabilidad")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(values) != 1 {
		t.Errorf("values = %v", values)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestEmbedNonRetryableAPIError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    400,
				"message": "invalid argument",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Embed(context.Background(), "texto")
	if err == nil {
		t.Fatal("want error for API failure")
	}
	if !strings.Contains(err.Error(), "INVALID_ARGUMENT") {
		t.Errorf("err = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (no retry)", got)
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	t.Parallel()

	client := testClient("http://unused.invalid")
	if _, err := client.Embed(context.Background(), "   "); err == nil {
		t.Fatal("want error for whitespace-only text")
	}
}

func TestIsConfigured(t *testing.T) {
	t.Parallel()

	if NewEmbeddingClient("").IsConfigured() {
		t.Error("empty key should not be configured")
	}
	if !NewEmbeddingClient("key").IsConfigured() {
		t.Error("non-empty key should be configured")
	}
}
