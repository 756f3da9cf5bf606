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

// Package citation turns raw retrieval hits into the ordered,
// deduplicated citation list returned to the caller.
//
// Three contracts hold for every assembled list: reranker order is
// authoritative and never re-sorted by another score, confidence
// percentages are non-increasing by list position, and similarity
// scores stay within [0,1].
package citation

import (
	"fmt"
	"math"
	"slices"

	"github.com/aris-ai/aris/internal/document"
)

const (
	DefaultDedupThreshold = 0.95
	DefaultSnippetLength  = 200
)

// Candidate is a single retrieval hit prior to assembly. RerankScore
// is nil when the hit was not reranked (reranker disabled or
// unavailable).
type Candidate struct {
	ID          string
	Source      string
	Page        int
	Text        string
	ContentType document.ContentType
	Similarity  float64
	RerankScore *float64
}

type Assembler struct {
	dedupThreshold float64
	snippetLength  int
}

type AssemblerOption func(*Assembler)

func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		dedupThreshold: DefaultDedupThreshold,
		snippetLength:  DefaultSnippetLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithDedupThreshold(t float64) AssemblerOption {
	return func(a *Assembler) {
		a.dedupThreshold = t
	}
}

func WithSnippetLength(n int) AssemblerOption {
	return func(a *Assembler) {
		a.snippetLength = n
	}
}

// MergeCandidates flattens per-sub-query candidate lists into one,
// preserving relative order. The merged list must go through a
// single Assemble call; concatenated per-sub-query citation lists
// would violate the ordering contract.
func MergeCandidates(lists ...[]Candidate) []Candidate {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]Candidate, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return merged
}

// Assemble converts candidates into the final citation list.
//
// If any candidate carries a rerank score the list is ordered by
// descending ordering score (rerank score where present, similarity
// otherwise); candidates without one slot in by similarity. Near
// duplicates (same source and page, normalized text similarity at or
// above the threshold) keep only the higher-ranked record.
func (a *Assembler) Assemble(candidates []Candidate) []document.Citation {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		if ranked[i].Similarity == 0 && ranked[i].RerankScore == nil {
			// positional fallback for unscored hits
			ranked[i].Similarity = 1.0 - 0.1*float64(i)
		}
		ranked[i].Similarity = clamp01(ranked[i].Similarity)
	}

	slices.SortStableFunc(ranked, func(x, y Candidate) int {
		sx, sy := orderingScore(x), orderingScore(y)
		switch {
		case sx > sy:
			return -1
		case sx < sy:
			return 1
		default:
			return 0
		}
	})

	kept := a.dedup(ranked)

	citations := make([]document.Citation, 0, len(kept))
	prevConfidence := 100
	for i, c := range kept {
		confidence := int(math.Round(clamp01(orderingScore(c)) * 100))
		if confidence > prevConfidence {
			confidence = prevConfidence
		}
		prevConfidence = confidence

		page := c.Page
		if page < 1 {
			page = 1
		}

		contentType := c.ContentType
		if !contentType.Valid() {
			contentType = document.ContentTypeText
		}

		citations = append(citations, document.Citation{
			ID:                   citationID(c, i),
			Source:               c.Source,
			Page:                 page,
			Snippet:              snippet(c.Text, a.snippetLength),
			FullText:             c.Text,
			ContentType:          contentType,
			SimilarityScore:      c.Similarity,
			RerankScore:          c.RerankScore,
			ConfidencePercentage: confidence,
		})
	}
	return citations
}

// dedup drops lower-ranked near duplicates, preserving the order of
// survivors.
func (a *Assembler) dedup(ranked []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(ranked))
	normed := make([]string, 0, len(ranked))

	for _, c := range ranked {
		norm := normalizeText(c.Text)
		dup := false
		for i, k := range kept {
			if k.Source != c.Source || k.Page != c.Page {
				continue
			}
			if trigramJaccard(normed[i], norm) >= a.dedupThreshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
			normed = append(normed, norm)
		}
	}
	return kept
}

func orderingScore(c Candidate) float64 {
	if c.RerankScore != nil {
		return *c.RerankScore
	}
	return c.Similarity
}

func citationID(c Candidate, rank int) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("%s:p%d:%d", c.Source, c.Page, rank)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func snippet(text string, length int) string {
	if len(text) <= length {
		return text
	}

	cut := text[:length]
	for i := length - 1; i > 0; i-- {
		if cut[i] == ' ' || cut[i] == '\n' {
			return cut[:i] + "..."
		}
	}
	return cut + "..."
}
