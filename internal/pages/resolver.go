package pages

import (
	"log/slog"

	"github.com/aris-ai/aris/internal/document"
)

// Resolver assigns page numbers to a document's chunks using a
// boundary index. It keeps a monotonic scan cursor over the page
// list, so resolving all chunks of a document in ascending start
// order costs O(pages + chunks) instead of O(pages * chunks).
//
// A Resolver is single-use per document and not safe for concurrent
// use; build one per ingestion.
type Resolver struct {
	idx    *BoundaryIndex
	cursor int
}

func NewResolver(idx *BoundaryIndex) *Resolver {
	return &Resolver{
		idx: idx,
	}
}

// Resolve returns the owning page for the half-open range
// [start, end). Ranges must arrive in non-decreasing start order.
func (r *Resolver) Resolve(start, end int) int {
	page, first := r.idx.bestPageFrom(start, end, r.cursor)
	r.cursor = first
	return page
}

// AssignPages resolves the page for every chunk in place. Chunks
// must be ordered by ascending start offset, as produced by the
// splitter. With an empty boundary index every chunk is assigned
// page 1 and a warning is recorded; ingestion continues.
func (r *Resolver) AssignPages(chunks []document.Chunk) {
	if r.idx.Len() == 0 && len(chunks) > 0 {
		slog.Warn("no page boundaries available, assigning page 1 to all chunks", "source", chunks[0].Source, "chunks", len(chunks))
	}

	for i := range chunks {
		chunks[i].Page = r.Resolve(chunks[i].Start, chunks[i].End)
	}
}
