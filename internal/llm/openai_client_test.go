// ABOUTME: Tests for the OpenAI-compatible client against a local test server
// ABOUTME: Verifies batching, ordering, chat requests and retry behaviour
package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/ragchat/internal/models"
)

type fakeOpenAI struct {
	mu            sync.Mutex
	embedBatches  [][]string
	chatRequests  []map[string]any
	failures      atomic.Int32
	failureStatus int
	reverseOrder  bool
	reply         string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.failureStatus)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream trouble","type":"server_error"}}`))
		return
	}

	switch r.URL.Path {
	case "/v1/embeddings":
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.embedBatches = append(f.embedBatches, req.Input)
		f.mu.Unlock()

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(len(text)), 1}}
		}
		if f.reverseOrder {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		writeJSON(w, map[string]any{"object": "list", "data": data, "model": req.Model})

	case "/v1/chat/completions":
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.chatRequests = append(f.chatRequests, req)
		f.mu.Unlock()

		writeJSON(w, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": f.reply},
				"finish_reason": "stop",
			}},
		})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeOpenAI, mutate func(*ClientConfig)) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.RetryDelay = time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	return client
}

func TestNewOpenAIClient_RequiresKeyOrBaseURL(t *testing.T) {
	if _, err := NewOpenAIClient(""); err == nil {
		t.Error("NewOpenAIClient(\"\") should fail without a base URL")
	}

	cfg := DefaultConfig("")
	cfg.BaseURL = "http://localhost:11434/v1"
	if _, err := NewOpenAIClientWithConfig(cfg); err != nil {
		t.Errorf("local endpoint without key error = %v", err)
	}
}

func TestOpenAIClient_EmbedBatch(t *testing.T) {
	fake := &fakeOpenAI{reverseOrder: true}
	client := newTestClient(t, fake, func(c *ClientConfig) { c.BatchSize = 2 })

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := client.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if int(v[0]) != len(texts[i]) {
			t.Errorf("vector %d belongs to a text of length %d, want %d", i, int(v[0]), len(texts[i]))
		}
	}
	if len(fake.embedBatches) != 3 {
		t.Errorf("sent %d requests, want 3 batches of at most 2", len(fake.embedBatches))
	}
}

func TestOpenAIClient_Embed(t *testing.T) {
	client := newTestClient(t, &fakeOpenAI{}, nil)
	v, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(v) != 2 || v[0] != 5 {
		t.Errorf("Embed() = %v, want [5 1]", v)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	fake := &fakeOpenAI{reply: "Paris [1]."}
	client := newTestClient(t, fake, func(c *ClientConfig) { c.ChatModel = "llama-3.1-8b" })

	messages := []models.Message{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "Context: ...\n\nQuestion: capital?"},
	}
	reply, err := client.Generate(context.Background(), messages)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "Paris [1]." {
		t.Errorf("Generate() = %q", reply)
	}

	req := fake.chatRequests[0]
	if req["model"] != "llama-3.1-8b" {
		t.Errorf("model = %v, want llama-3.1-8b", req["model"])
	}
	sent, _ := req["messages"].([]any)
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if first, _ := sent[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v", first["role"])
	}
}

func TestOpenAIClient_Retries(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		failures  int32
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{"recovers from server errors", http.StatusServiceUnavailable, 2, 3, false, 1},
		{"recovers from rate limits", http.StatusTooManyRequests, 1, 3, false, 1},
		{"gives up after max retries", http.StatusInternalServerError, 5, 2, true, 0},
		{"does not retry auth errors", http.StatusUnauthorized, 1, 3, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOpenAI{failureStatus: tt.status}
			fake.failures.Store(tt.failures)
			client := newTestClient(t, fake, func(c *ClientConfig) { c.MaxRetries = tt.retries })

			_, err := client.Embed(context.Background(), "text")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Embed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(fake.embedBatches) != tt.wantCalls {
				t.Errorf("successful requests = %d, want %d", len(fake.embedBatches), tt.wantCalls)
			}
			if tt.status == http.StatusUnauthorized && fake.failures.Load() != 0 {
				t.Error("auth failure should be attempted exactly once")
			}
			if tt.wantErr && !strings.Contains(err.Error(), "failed to generate embeddings") {
				t.Errorf("error %q should name the failed operation", err)
			}
		})
	}
}

func TestOpenAIClient_ContextTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	// Cleanups run last-in first-out: release the handler before Close waits on it.
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	cfg := DefaultConfig("key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.RetryDelay = time.Millisecond
	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.Generate(ctx, []models.Message{{Role: models.RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("Generate() should fail when the context times out")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Generate() did not respect the context deadline")
	}
}
