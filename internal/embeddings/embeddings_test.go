package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewEmbedder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewEmbedder("openai", ""); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}

	t.Setenv("OPENAI_API_KEY", "k")
	e, err := NewEmbedder("openai", "")
	if err != nil {
		t.Fatalf("NewEmbedder(openai): %v", err)
	}
	if e.Name() != "text-embedding-3-small" || e.Dimensions() != 1536 {
		t.Errorf("unexpected openai embedder %s/%d", e.Name(), e.Dimensions())
	}

	e, err = NewEmbedder("ollama", "")
	if err != nil {
		t.Fatalf("NewEmbedder(ollama): %v", err)
	}
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("unexpected ollama embedder %s", e.Name())
	}

	if _, err := NewEmbedder("google", ""); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestOpenAIEmbedderBatches(t *testing.T) {
	var calls int
	var first string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if calls == 1 {
			first = req.Input[0]
		}

		type datum struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Object string  `json:"object"`
			Data   []datum `json:"data"`
			Model  string  `json:"model"`
		}{Object: "list", Model: "text-embedding-3-small"}
		for i, in := range req.Input {
			resp.Data = append(resp.Data, datum{Object: "embedding", Index: i, Embedding: []float32{float32(len(in)), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("k", ModelTextEmbedding3Small, srv.URL+"/v1")
	texts := make([]string, maxBatchSize+5)
	for i := range texts {
		texts[i] = "abc"
	}
	texts[0] = "  abc\n\n  "

	out, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(out))
	}
	if calls != 2 {
		t.Errorf("expected 2 batched requests, got %d", calls)
	}
	if first != "abc" {
		t.Errorf("expected whitespace-normalised input, got %q", first)
	}
	if out[0][0] != 3 {
		t.Errorf("unexpected vector %v", out[0])
	}
}

func TestOllamaEmbedder(t *testing.T) {
	var calls int
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		calls++
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		received = append(received, req.Input...)
		var resp ollamaEmbedResponse
		for _, in := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(in)), 0.25})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL+"/")
	texts := make([]string, ollamaBatchSize+1)
	for i := range texts {
		texts[i] = "a"
	}
	texts[1] = "b\t\tcd"

	out, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 batched requests, got %d", calls)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(out))
	}
	if received[1] != "b cd" || out[1][0] != 4 {
		t.Errorf("unexpected second input %q -> %v", received[1], out[1])
	}

	fn := ToChromemFunc(e)
	v, err := fn(context.Background(), "x")
	if err != nil || len(v) != 2 {
		t.Errorf("chromem func: %v, %v", v, err)
	}
}

func TestOllamaEmbedderCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[0.5,0.25]]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when fewer embeddings than inputs come back")
	}
}

func TestPrepareInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"collapses whitespace", "# Cells\n\n  - mitosis\t splits ", 0, "# Cells - mitosis splits"},
		{"blank", " \n\t", 10, ""},
		{"under limit", "short note", 100, "short note"},
		{"cuts on rune boundary", "élan vital", 4, "élan"},
		{"drops trailing space at cut", "ab cd", 3, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrepareInput(tt.text, tt.maxRunes); got != tt.want {
				t.Errorf("PrepareInput(%q, %d) = %q, want %q", tt.text, tt.maxRunes, got, tt.want)
			}
		})
	}

	long := strings.Repeat("日本", 5000)
	got := PrepareInput(long, ollamaMaxInputRunes)
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != ollamaMaxInputRunes {
		t.Errorf("expected %d valid runes, got %d", ollamaMaxInputRunes, utf8.RuneCountInString(got))
	}
}
