package citation_test

import (
	"testing"

	"github.com/aris-ai/aris/internal/citation"
	"github.com/aris-ai/aris/internal/document"
)

func score(v float64) *float64 {
	return &v
}

func TestAssembleRerankOrderIsAuthoritative(t *testing.T) {
	// similarity order disagrees with rerank order on purpose
	candidates := []citation.Candidate{
		{ID: "a", Source: "doc.pdf", Page: 1, Text: "alpha", Similarity: 0.99, RerankScore: score(0.2)},
		{ID: "b", Source: "doc.pdf", Page: 2, Text: "bravo", Similarity: 0.10, RerankScore: score(0.9)},
		{ID: "c", Source: "doc.pdf", Page: 3, Text: "charlie", Similarity: 0.50, RerankScore: score(0.5)},
	}

	got := citation.NewAssembler().Assemble(candidates)

	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d expected '%s', got '%s'", i, want, got[i].ID)
		}
	}
}

func TestAssembleMixedRerankAndSimilarity(t *testing.T) {
	// candidates without a rerank score slot in by similarity
	candidates := []citation.Candidate{
		{ID: "reranked-low", Source: "d", Page: 1, Text: "one", Similarity: 0.2, RerankScore: score(0.3)},
		{ID: "plain-high", Source: "d", Page: 2, Text: "two", Similarity: 0.8},
		{ID: "reranked-high", Source: "d", Page: 3, Text: "three", Similarity: 0.1, RerankScore: score(0.95)},
	}

	got := citation.NewAssembler().Assemble(candidates)

	wantOrder := []string{"reranked-high", "plain-high", "reranked-low"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d expected '%s', got '%s'", i, want, got[i].ID)
		}
	}
}

func TestAssembleConfidenceMonotonic(t *testing.T) {
	candidates := []citation.Candidate{
		{ID: "a", Source: "d", Page: 1, Text: "first result text", Similarity: 0.9},
		{ID: "b", Source: "d", Page: 2, Text: "second result text", Similarity: 0.7},
		{ID: "c", Source: "d", Page: 3, Text: "third result text", Similarity: 0.7},
		{ID: "d", Source: "d", Page: 4, Text: "fourth result text", Similarity: 0.2},
	}

	got := citation.NewAssembler().Assemble(candidates)

	for i := 1; i < len(got); i++ {
		if got[i].ConfidencePercentage > got[i-1].ConfidencePercentage {
			t.Errorf("confidence increases at position %d: %d then %d",
				i, got[i-1].ConfidencePercentage, got[i].ConfidencePercentage)
		}
	}
	for i, c := range got {
		if c.ConfidencePercentage < 0 || c.ConfidencePercentage > 100 {
			t.Errorf("position %d confidence %d out of range", i, c.ConfidencePercentage)
		}
	}
}

func TestAssembleSimilarityBounds(t *testing.T) {
	candidates := []citation.Candidate{
		{ID: "a", Source: "d", Page: 1, Text: "aa", Similarity: 1.5},
		{ID: "b", Source: "d", Page: 2, Text: "bb", Similarity: -0.3},
		{ID: "c", Source: "d", Page: 3, Text: "cc"}, // unscored, positional fallback
	}

	got := citation.NewAssembler().Assemble(candidates)

	for i, c := range got {
		if c.SimilarityScore < 0 || c.SimilarityScore > 1 {
			t.Errorf("position %d similarity %f out of range", i, c.SimilarityScore)
		}
	}
}

func TestAssembleDeduplicates(t *testing.T) {
	candidates := []citation.Candidate{
		{ID: "a", Source: "doc.pdf", Page: 3, Text: "The quarterly revenue grew by 14 percent compared to last year.", Similarity: 0.9},
		{ID: "b", Source: "doc.pdf", Page: 3, Text: "The quarterly revenue grew by 14 percent  compared to last year.", Similarity: 0.8},
		{ID: "c", Source: "doc.pdf", Page: 4, Text: "The quarterly revenue grew by 14 percent compared to last year.", Similarity: 0.7},
		{ID: "d", Source: "other.pdf", Page: 3, Text: "The quarterly revenue grew by 14 percent compared to last year.", Similarity: 0.6},
	}

	got := citation.NewAssembler().Assemble(candidates)

	if len(got) != 3 {
		t.Fatalf("expected 3 citations after dedup, got %d", len(got))
	}
	if got[0].ID != "a" {
		t.Errorf("expected higher-ranked duplicate to survive, got '%s'", got[0].ID)
	}
	// different page and different source are not duplicates
	if got[1].ID != "c" || got[2].ID != "d" {
		t.Errorf("expected survivors [a c d], got [%s %s %s]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestAssembleEmpty(t *testing.T) {
	if got := citation.NewAssembler().Assemble(nil); got != nil {
		t.Errorf("expected nil for empty candidates, got %v", got)
	}
}

func TestAssemblePageAndContentTypeFallbacks(t *testing.T) {
	candidates := []citation.Candidate{
		{ID: "a", Source: "d", Page: 0, Text: "text", Similarity: 0.5},
	}

	got := citation.NewAssembler().Assemble(candidates)

	if got[0].Page != 1 {
		t.Errorf("expected page fallback to 1, got %d", got[0].Page)
	}
	if got[0].ContentType != document.ContentTypeText {
		t.Errorf("expected text content type fallback, got '%s'", got[0].ContentType)
	}
}

func TestMergeCandidates(t *testing.T) {
	a := []citation.Candidate{{ID: "a1"}, {ID: "a2"}}
	b := []citation.Candidate{{ID: "b1"}}

	merged := citation.MergeCandidates(a, b)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged candidates, got %d", len(merged))
	}
	wantOrder := []string{"a1", "a2", "b1"}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("position %d expected '%s', got '%s'", i, want, merged[i].ID)
		}
	}
}

func TestSnippetShorterThanFullText(t *testing.T) {
	long := ""
	for range 30 {
		long += "lengthy sentence fragment "
	}
	candidates := []citation.Candidate{
		{ID: "a", Source: "d", Page: 1, Text: long, Similarity: 0.5},
	}

	got := citation.NewAssembler().Assemble(candidates)

	if len(got[0].Snippet) > citation.DefaultSnippetLength+3 {
		t.Errorf("snippet length %d exceeds limit", len(got[0].Snippet))
	}
	if got[0].FullText != long {
		t.Errorf("full text must be preserved")
	}
}
