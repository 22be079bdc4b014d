package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func mockOllama(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestIsRunning(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if !c.IsRunning(context.Background()) {
		t.Error("expected IsRunning to be true")
	}
}

func TestIsRunningDown(t *testing.T) {
	c := New("http://127.0.0.1:1")
	if c.IsRunning(context.Background()) {
		t.Error("expected IsRunning to be false against a closed port")
	}
}

func TestListModels(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "llama3.2:latest"},
				{"name": "nomic-embed-text:latest"},
			},
		})
	})

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0] != "llama3.2:latest" {
		t.Errorf("unexpected first model %q", models[0])
	}
}

func TestHasModelTagSuffix(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "llama3.2:latest"}},
		})
	})

	if !c.HasModel(context.Background(), "llama3.2") {
		t.Error("expected bare name to match tagged model")
	}
	if !c.HasModel(context.Background(), "llama3.2:latest") {
		t.Error("expected exact match")
	}
	if c.HasModel(context.Background(), "mistral") {
		t.Error("did not expect mistral to match")
	}
}

func TestGenerate(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Model != "llama3.2" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "hello there"})
	})

	got, err := c.Generate(context.Background(), "llama3.2", "say hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello there" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	if _, err := c.Generate(context.Background(), "missing", "hi"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestEmbed(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	})

	vec, err := c.Embed(context.Background(), "nomic-embed-text", "some text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(vec))
	}
}

func TestEmbedEmpty(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	})

	if _, err := c.Embed(context.Background(), "nomic-embed-text", "text"); err == nil {
		t.Error("expected error on empty embeddings")
	}
}

func TestEnsureReadyMissingModelNoPull(t *testing.T) {
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{}})
	})

	err := EnsureReady(context.Background(), c, ReadyOptions{Model: "llama3.2"})
	if err == nil {
		t.Fatal("expected error when model is missing and pulling is disabled")
	}
}

func TestEnsureReadyWarmsUp(t *testing.T) {
	var generated bool
	c := mockOllama(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "llama3.2:latest"}},
			})
		case "/api/generate":
			generated = true
			json.NewEncoder(w).Encode(map[string]string{"response": "pong"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	if err := EnsureReady(context.Background(), c, ReadyOptions{Model: "llama3.2"}); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if !generated {
		t.Error("expected a warm-up generation")
	}
}
