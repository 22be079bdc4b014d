package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vtyagi/avatar/internal/profile"
)

// fakeEmbedder maps known substrings to fixed vectors so similarity ordering
// is deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedder down")
	}
	for key, vec := range f.vectors {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float32{0, 0, 1}, nil
}

func TestIndexSearchOrdersBySimilarity(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"shopping": {1, 0, 0},
		"health":   {0, 1, 0},
		"buy":      {0.9, 0.1, 0},
	}}
	idx := NewIndex(emb, "test-model")

	err := idx.Build(context.Background(), []Snippet{
		{Label: "[Project - QuickCart]", Text: "A shopping app."},
		{Label: "[Project - VitalCare]", Text: "A health platform."},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := idx.Search(context.Background(), "where can I buy things", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Label != "[Project - QuickCart]" {
		t.Errorf("expected QuickCart first, got %s", got[0].Label)
	}
}

func TestIndexSearchTopKClamped(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	idx := NewIndex(emb, "test-model")
	if err := idx.Build(context.Background(), []Snippet{{Label: "[Bio]", Text: "hi"}}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected topK clamped to 1, got %d", len(got))
	}
}

func TestIndexSearchEmpty(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{}, "test-model")
	got, err := idx.Search(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil results on empty index, got %v", got)
	}
}

func TestIndexBuildPropagatesEmbedError(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{fail: true}, "test-model")
	err := idx.Build(context.Background(), []Snippet{{Label: "[Bio]", Text: "hi"}})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %f", got)
	}
}

func TestProfileSnippets(t *testing.T) {
	p := profile.Profile{
		Name: "Varun Tyagi",
		Bio:  "Software engineer.",
		Experience: []profile.Experience{
			{Position: "Intern", Company: "Eigengram", Period: "2023"},
		},
		Education: []profile.Education{
			{Degree: "B.Tech", School: "ABES", Period: "2020-2024"},
		},
		Skills: []profile.SkillCategory{
			{Category: "Languages", Items: []string{"Go", "Python"}},
		},
		Achievements: []profile.Achievement{
			{Title: "LeetCode", Value: "500+ problems"},
		},
	}
	projects := []profile.Project{
		{Title: "QuickCart", Description: "Shopping app.", Technologies: []string{"React"}},
	}

	snippets := ProfileSnippets(p, projects)
	if len(snippets) != 6 {
		t.Fatalf("expected 6 snippets, got %d", len(snippets))
	}

	labels := make(map[string]string)
	for _, s := range snippets {
		labels[s.Label] = s.Text
	}
	if _, ok := labels["[Project - QuickCart]"]; !ok {
		t.Error("missing project snippet")
	}
	if !strings.Contains(labels["[Project - QuickCart]"], "Technologies: React.") {
		t.Errorf("project snippet missing technologies: %q", labels["[Project - QuickCart]"])
	}
	if !strings.Contains(labels["[Experience]"], "Intern at Eigengram (2023)") {
		t.Errorf("unexpected experience snippet: %q", labels["[Experience]"])
	}
	if !strings.Contains(labels["[Skills]"], "Languages: Go, Python") {
		t.Errorf("unexpected skills snippet: %q", labels["[Skills]"])
	}
}

func TestResumeSnippetsSkipsBlank(t *testing.T) {
	got := ResumeSnippets([]string{"First paragraph.", "   ", "Second."})
	if len(got) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(got))
	}
	if got[0].Label != "[Resume]" {
		t.Errorf("unexpected label %q", got[0].Label)
	}
}
