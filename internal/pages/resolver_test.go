package pages_test

import (
	"reflect"
	"testing"

	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/pages"
)

func TestAssignPages(t *testing.T) {
	idx, err := pages.NewBoundaryIndex([]document.PageBoundary{
		{Page: 1, Start: 0, End: 500},
		{Page: 2, Start: 500, End: 900},
		{Page: 3, Start: 900, End: 1400},
	}, 0)
	if err != nil {
		t.Fatalf("expected valid boundaries, got %v", err)
	}

	chunks := []document.Chunk{
		{Start: 0, End: 480, Source: "report.pdf", ChunkIndex: 0},
		{Start: 450, End: 700, Source: "report.pdf", ChunkIndex: 1},
		{Start: 700, End: 700, Source: "report.pdf", ChunkIndex: 2}, // empty chunk
		{Start: 880, End: 1300, Source: "report.pdf", ChunkIndex: 3},
	}

	r := pages.NewResolver(idx)
	r.AssignPages(chunks)

	want := []int{1, 2, 2, 3}
	got := make([]int, len(chunks))
	for i, c := range chunks {
		got[i] = c.Page
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("page assignment expected %v, got %v", want, got)
	}
}

func TestAssignPagesIdempotent(t *testing.T) {
	idx, err := pages.NewBoundaryIndex([]document.PageBoundary{
		{Page: 1, Start: 0, End: 1000},
		{Page: 2, Start: 1000, End: 2000},
	}, 0)
	if err != nil {
		t.Fatalf("expected valid boundaries, got %v", err)
	}

	chunks := []document.Chunk{
		{Start: 0, End: 600},
		{Start: 550, End: 1100},
		{Start: 1100, End: 1900},
	}

	pages.NewResolver(idx).AssignPages(chunks)
	first := make([]int, len(chunks))
	for i, c := range chunks {
		first[i] = c.Page
	}

	// a fresh resolver over the same inputs yields the same pages
	pages.NewResolver(idx).AssignPages(chunks)
	for i, c := range chunks {
		if c.Page != first[i] {
			t.Errorf("chunk %d page changed between runs: %d then %d", i, first[i], c.Page)
		}
	}
}

func TestAssignPagesNoBoundaries(t *testing.T) {
	idx, err := pages.NewBoundaryIndex(nil, 0)
	if err != nil {
		t.Fatalf("expected empty boundaries to be valid, got %v", err)
	}

	chunks := []document.Chunk{
		{Start: 0, End: 100, Source: "notes.txt"},
		{Start: 100, End: 250, Source: "notes.txt"},
	}
	pages.NewResolver(idx).AssignPages(chunks)

	for i, c := range chunks {
		if c.Page != 1 {
			t.Errorf("chunk %d expected fallback page 1, got %d", i, c.Page)
		}
	}
}

func TestResolverMonotonicCursor(t *testing.T) {
	bounds := make([]document.PageBoundary, 0, 200)
	for p := 1; p <= 200; p++ {
		bounds = append(bounds, document.PageBoundary{Page: p, Start: (p - 1) * 100, End: p * 100})
	}
	idx, err := pages.NewBoundaryIndex(bounds, 0)
	if err != nil {
		t.Fatalf("expected valid boundaries, got %v", err)
	}

	r := pages.NewResolver(idx)
	for p := 1; p <= 200; p++ {
		start := (p-1)*100 + 10
		if got := r.Resolve(start, start+50); got != p {
			t.Fatalf("Resolve(%d, %d) = %d, expected %d", start, start+50, got, p)
		}
	}
}
