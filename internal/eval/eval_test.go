package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func Test_PrecisionAtK(t *testing.T) {
	t.Parallel()

	retrieved := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		name     string
		relevant []string
		k        int
		want     float64
	}{
		{"all relevant", []string{"a", "b", "c", "d", "e"}, 5, 1.0},
		{"two of five", []string{"a", "c"}, 5, 0.4},
		{"none relevant", []string{"x", "y"}, 5, 0.0},
		{"cutoff excludes hit", []string{"e"}, 3, 0.0},
		{"fewer retrieved than k", []string{"a"}, 10, 0.1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := PrecisionAtK(retrieved, tt.relevant, tt.k); got != tt.want {
				t.Errorf("PrecisionAtK = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_RecallAtK(t *testing.T) {
	t.Parallel()

	retrieved := []string{"a", "b", "c"}
	tests := []struct {
		name     string
		relevant []string
		k        int
		want     float64
	}{
		{"full recall", []string{"a", "b"}, 3, 1.0},
		{"half recall", []string{"a", "x"}, 3, 0.5},
		{"no relevant set", nil, 3, 0.0},
		{"duplicate relevant counted once", []string{"a", "a"}, 3, 1.0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RecallAtK(retrieved, tt.relevant, tt.k); got != tt.want {
				t.Errorf("RecallAtK = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_HitAtK(t *testing.T) {
	t.Parallel()

	retrieved := []string{"a", "b", "c"}
	if !HitAtK(retrieved, []string{"c"}, 3) {
		t.Error("expected hit at k=3")
	}
	if HitAtK(retrieved, []string{"c"}, 2) {
		t.Error("expected no hit at k=2")
	}
	if HitAtK(retrieved, nil, 3) {
		t.Error("expected no hit for empty relevant set")
	}
}

func Test_Evaluate_AveragesAcrossQueries(t *testing.T) {
	t.Parallel()

	// Fixed rankings per query; no index involved.
	rankings := map[string][]string{
		"q1": {"a", "b"}, // relevant: a, b → precision 1.0, recall 1.0, hit
		"q2": {"x", "y"}, // relevant: a    → precision 0.0, recall 0.0, miss
	}
	retrieve := func(_ context.Context, query string, _ int) ([]string, error) {
		return rankings[query], nil
	}
	labelled := []LabelledQuery{
		{Query: "q1", RelevantURLs: []string{"a", "b"}},
		{Query: "q2", RelevantURLs: []string{"a"}},
	}

	m, err := Evaluate(context.Background(), retrieve, labelled, 2)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.Queries != 2 || m.K != 2 {
		t.Errorf("counts: %+v", m)
	}
	if m.Precision != 0.5 {
		t.Errorf("Precision = %v, want 0.5", m.Precision)
	}
	if m.Recall != 0.5 {
		t.Errorf("Recall = %v, want 0.5", m.Recall)
	}
	if m.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", m.HitRate)
	}
}

func Test_Evaluate_RetrieverErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("embedding service down")
	retrieve := func(_ context.Context, _ string, _ int) ([]string, error) {
		return nil, boom
	}
	_, err := Evaluate(context.Background(), retrieve, []LabelledQuery{{Query: "q"}}, 5)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped retriever error, got %v", err)
	}
}

func Test_Evaluate_RejectsBadInput(t *testing.T) {
	t.Parallel()

	retrieve := func(_ context.Context, _ string, _ int) ([]string, error) { return nil, nil }
	if _, err := Evaluate(context.Background(), retrieve, []LabelledQuery{{Query: "q"}}, 0); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := Evaluate(context.Background(), retrieve, nil, 5); err == nil {
		t.Error("expected error for empty labelled set")
	}
}

func Test_LoadLabelled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "labelled.json")
	payload := `[
  {"query": "entry-level accounting", "assessment_urls": ["https://example.com/a"]},
  {"query": "qa engineer", "assessment_urls": ["https://example.com/b", "https://example.com/c"]}
]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := LoadLabelled(path)
	if err != nil {
		t.Fatalf("LoadLabelled: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 queries, got %d", len(got))
	}
	if got[0].Query != "entry-level accounting" || len(got[1].RelevantURLs) != 2 {
		t.Errorf("parsed content mismatch: %+v", got)
	}

	if _, err := LoadLabelled(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
