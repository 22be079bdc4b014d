package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

// Snippet is one retrievable unit of profile context. Label identifies the
// source section, e.g. "[Project - QuickCart]" or "[Experience]".
type Snippet struct {
	Label string
	Text  string
}

// String renders the snippet the way it appears inside a prompt context block.
func (s Snippet) String() string {
	return s.Label + " " + s.Text
}

type indexed struct {
	snippet Snippet
	vector  []float32
}

// Index holds embedded snippets in memory and answers similarity queries.
// Build it once at startup; Search is safe for concurrent use afterwards.
type Index struct {
	embedder Embedder
	model    string

	mu      sync.RWMutex
	entries []indexed
}

// NewIndex creates an empty index that embeds with the given model.
func NewIndex(embedder Embedder, model string) *Index {
	return &Index{embedder: embedder, model: model}
}

// Build embeds all snippets and replaces the index contents. Embeddings run
// concurrently with a bounded number of in-flight requests so a large resume
// does not overwhelm the local Ollama instance.
func (idx *Index) Build(ctx context.Context, snippets []Snippet) error {
	entries := make([]indexed, len(snippets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range snippets {
		g.Go(func() error {
			vec, err := idx.embedder.Embed(gctx, idx.model, s.String())
			if err != nil {
				return fmt.Errorf("embedding snippet %q: %w", s.Label, err)
			}
			entries[i] = indexed{snippet: s, vector: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()

	slog.Info("retrieval index built", "snippets", len(entries))
	return nil
}

// Len returns the number of indexed snippets.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search embeds the query and returns the topK most similar snippets,
// best first. An empty index returns no results and no error.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Snippet, error) {
	idx.mu.RLock()
	entries := idx.entries
	idx.mu.RUnlock()

	if len(entries) == 0 || topK <= 0 {
		return nil, nil
	}

	qvec, err := idx.embedder.Embed(ctx, idx.model, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	type scored struct {
		snippet Snippet
		score   float64
	}
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		results = append(results, scored{snippet: e.snippet, score: cosineSimilarity(qvec, e.vector)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}
	out := make([]Snippet, topK)
	for i := range out {
		out[i] = results[i].snippet
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
