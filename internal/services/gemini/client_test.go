package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/amaumene/cinearchive/internal/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(&config.Config{
		GeminiAPIKey:         "test-key",
		GeminiBaseURL:        baseURL,
		GeminiModel:          "demo-model",
		GeminiTimeoutSeconds: 5,
	}, logger)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	client.backoff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return client
}

func writeText(t *testing.T, w http.ResponseWriter, text string) {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestGenerateJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/demo-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("expected JSON response mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "system" {
			t.Errorf("expected system instruction")
		}
		if req.Contents[0].Parts[0].Text != "user" {
			t.Errorf("expected user prompt, got %+v", req.Contents)
		}
		writeText(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	text, err := newTestClient(t, server.URL).GenerateJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateJSON returned error: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeText(t, w, `{"ok":true}`)
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL).GenerateJSON(context.Background(), "", "user"); err != nil {
		t.Fatalf("GenerateJSON returned error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestGenerateJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GenerateJSON(context.Background(), "", "user")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single call, got %d", got)
	}
}

func TestGenerateJSONEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server.URL).GenerateJSON(context.Background(), "", "user"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerateJSONRequiresAPIKey(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	client.apiKey = ""

	if _, err := client.GenerateJSON(context.Background(), "", "user"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}
