// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package pages maps character ranges of a parsed document onto
// physical page numbers. The boundary index answers which page owns
// a given range or offset; the resolver applies it to a document's
// chunks in a single forward pass.
package pages

import (
	"fmt"

	"github.com/aris-ai/aris/internal/document"
)

// ErrInvalidBoundaries reports malformed page boundary metadata
// received from a parser. Ingestion of the document fails with this
// error instead of degrading silently.
type ErrInvalidBoundaries struct {
	Reason string
}

func (e ErrInvalidBoundaries) Error() string {
	return fmt.Sprintf("invalid page boundaries: %s", e.Reason)
}

// BoundaryIndex holds a document's validated page boundaries and
// answers page-ownership lookups. A zero-page index is valid and
// resolves everything to page 1 (single-page fallback).
type BoundaryIndex struct {
	bounds []document.PageBoundary
}

// NewBoundaryIndex validates the given boundaries and builds an
// index over them. Boundaries must be sorted ascending by start
// offset, must not overlap, and gaps between consecutive pages must
// not exceed gapTolerance characters. An empty slice is accepted.
func NewBoundaryIndex(bounds []document.PageBoundary, gapTolerance int) (*BoundaryIndex, error) {
	for i, b := range bounds {
		if b.Page < 1 {
			return nil, ErrInvalidBoundaries{Reason: fmt.Sprintf("page number %d at position %d, must be >= 1", b.Page, i)}
		}
		if b.End < b.Start {
			return nil, ErrInvalidBoundaries{Reason: fmt.Sprintf("page %d has end_char %d before start_char %d", b.Page, b.End, b.Start)}
		}
		if i == 0 {
			continue
		}

		prev := bounds[i-1]
		if b.Start < prev.Start {
			return nil, ErrInvalidBoundaries{Reason: fmt.Sprintf("page %d starts before page %d", b.Page, prev.Page)}
		}
		if b.Start < prev.End {
			return nil, ErrInvalidBoundaries{Reason: fmt.Sprintf("page %d overlaps page %d", b.Page, prev.Page)}
		}
		if gap := b.Start - prev.End; gap > gapTolerance {
			return nil, ErrInvalidBoundaries{Reason: fmt.Sprintf("gap of %d chars between page %d and page %d exceeds tolerance %d", gap, prev.Page, b.Page, gapTolerance)}
		}
	}

	idx := &BoundaryIndex{
		bounds: bounds,
	}
	return idx, nil
}

// Len returns the number of pages in the index.
func (idx *BoundaryIndex) Len() int {
	return len(idx.bounds)
}

// OverlapChars computes the character overlap between the half-open
// range [start, end) and the page at pageIdx.
func (idx *BoundaryIndex) OverlapChars(start, end, pageIdx int) int {
	if pageIdx < 0 || pageIdx >= len(idx.bounds) {
		return 0
	}

	b := idx.bounds[pageIdx]
	lo := max(start, b.Start)
	hi := min(end, b.End)
	return max(0, hi-lo)
}

// BestPageForRange returns the page with the strictly greatest
// character overlap with [start, end). Ties resolve to the lowest
// page number. Returns 1 when the index holds no boundaries.
func (idx *BoundaryIndex) BestPageForRange(start, end int) int {
	page, _ := idx.bestPageFrom(start, end, 0)
	return page
}

// bestPageFrom scans candidate pages beginning at cursor, which must
// point at or before the first page whose End >= start. It returns
// the winning page and the index of the first candidate page, so a
// caller resolving ascending ranges can resume without restarting.
func (idx *BoundaryIndex) bestPageFrom(start, end, cursor int) (page int, first int) {
	if len(idx.bounds) == 0 {
		return 1, 0
	}

	i := cursor
	for i < len(idx.bounds) && idx.bounds[i].End < start {
		i++
	}
	if i == len(idx.bounds) {
		// range lies past the last page
		return idx.bounds[len(idx.bounds)-1].Page, len(idx.bounds) - 1
	}
	first = i

	// empty range: take the page containing start
	if start >= end {
		return idx.pageAtIndex(start, first), first
	}

	best := idx.bounds[first].Page
	bestOverlap := idx.OverlapChars(start, end, first)
	for j := first + 1; j < len(idx.bounds) && idx.bounds[j].Start < end; j++ {
		if ov := idx.OverlapChars(start, end, j); ov > bestOverlap {
			best = idx.bounds[j].Page
			bestOverlap = ov
		}
	}
	return best, first
}

// PageAtOffset returns the page whose range contains the given
// character offset. An offset falling exactly on a page boundary
// belongs to the later page: image markers are inserted ahead of the
// page they open. Returns 1 for an empty index.
func (idx *BoundaryIndex) PageAtOffset(off int) int {
	if len(idx.bounds) == 0 {
		return 1
	}
	return idx.pageAtIndex(off, 0)
}

func (idx *BoundaryIndex) pageAtIndex(off, cursor int) int {
	for i := cursor; i < len(idx.bounds); i++ {
		b := idx.bounds[i]
		// strict off < b.End pushes exact boundary offsets onto the
		// following page
		if off < b.End {
			return b.Page
		}
	}
	return idx.bounds[len(idx.bounds)-1].Page
}
