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

// Package retrieval answers questions against the indexed corpus. A
// query fans out over optional LM subqueries and both collections,
// reranks the merged hits and assembles the final citation list.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aris-ai/aris/internal/citation"
	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/provider"
	"github.com/aris-ai/aris/internal/vector"
)

const (
	DefaultTopK   = 10
	maxSubqueries = 4
)

const decomposePrompt = `Break the following question into at most %d short, self-contained search queries.
Return one query per line with no numbering or extra text.
If the question is already simple, return it unchanged as a single line.

Question: %s`

const synthesisPrompt = `Answer the question using only the numbered context passages below.
Cite passages inline as [1], [2] and so on. If the context does not
contain the answer, say so.

Question: %s

Context:
%s`

type Params struct {
	Query        string
	TopK         int
	SourceFilter string
	Synthesize   bool
}

type Response struct {
	Answer     string              `json:"answer,omitempty"`
	Citations  []document.Citation `json:"citations"`
	Subqueries []string            `json:"subqueries,omitempty"`
}

type Retriever struct {
	embedder  provider.Embedder
	store     vector.Store
	reranker  provider.Reranker
	lm        provider.LM
	assembler *citation.Assembler

	textCollection   string
	imagesCollection string
	rerankEnabled    bool
	decomposeEnabled bool
}

type RetrieverParams struct {
	Embedder  provider.Embedder
	Store     vector.Store
	Reranker  provider.Reranker
	LM        provider.LM
	Assembler *citation.Assembler

	TextCollection   string
	ImagesCollection string
	RerankEnabled    bool
	DecomposeEnabled bool
}

func NewRetriever(params RetrieverParams) *Retriever {
	assembler := params.Assembler
	if assembler == nil {
		assembler = citation.NewAssembler()
	}
	return &Retriever{
		embedder:         params.Embedder,
		store:            params.Store,
		reranker:         params.Reranker,
		lm:               params.LM,
		assembler:        assembler,
		textCollection:   params.TextCollection,
		imagesCollection: params.ImagesCollection,
		rerankEnabled:    params.RerankEnabled,
		decomposeEnabled: params.DecomposeEnabled,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, params Params) (*Response, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	topK := params.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	subqueries := r.decompose(ctx, params.Query)

	candidates, err := r.search(ctx, subqueries, params.SourceFilter, topK)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &Response{Citations: []document.Citation{}, Subqueries: subqueries}, nil
	}

	candidates = r.rerank(ctx, params.Query, candidates, topK)

	citations := r.assembler.Assemble(candidates)
	if len(citations) > topK {
		citations = citations[:topK]
	}

	res := &Response{
		Citations:  citations,
		Subqueries: subqueries,
	}

	if params.Synthesize && r.lm != nil {
		answer, err := r.synthesize(ctx, params.Query, citations)
		if err != nil {
			slog.Warn("answer synthesis failed, returning citations only", "error", err)
		} else {
			res.Answer = answer
		}
	}

	return res, nil
}

// decompose asks the language model for subqueries. Any failure falls
// back to searching with the original query alone.
func (r *Retriever) decompose(ctx context.Context, query string) []string {
	if !r.decomposeEnabled || r.lm == nil {
		return []string{query}
	}

	out, err := r.lm.Generate(ctx, provider.GenerationRequest{
		Prompt: fmt.Sprintf(decomposePrompt, maxSubqueries, query),
	})
	if err != nil {
		slog.Warn("query decomposition failed", "error", err)
		return []string{query}
	}

	var subqueries []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		subqueries = append(subqueries, line)
		if len(subqueries) == maxSubqueries {
			break
		}
	}

	if len(subqueries) == 0 {
		return []string{query}
	}
	return subqueries
}

// search fans out every subquery over the text and images collections
// concurrently and merges the scored hits.
func (r *Retriever) search(ctx context.Context, subqueries []string, sourceFilter string, limit int) ([]citation.Candidate, error) {
	textExists, err := r.store.CollectionExists(ctx, r.textCollection)
	if err != nil {
		return nil, err
	}
	imagesExists, err := r.store.CollectionExists(ctx, r.imagesCollection)
	if err != nil {
		return nil, err
	}
	if !textExists && !imagesExists {
		return nil, nil
	}

	var mu sync.Mutex
	var lists [][]citation.Candidate

	g, gctx := errgroup.WithContext(ctx)
	for _, subquery := range subqueries {
		g.Go(func() error {
			queryVector, err := r.embedder.EmbedQuery(gctx, subquery)
			if err != nil {
				return fmt.Errorf("failed to embed query: %w", err)
			}

			if textExists {
				hits, err := r.queryCollection(gctx, r.textCollection, queryVector, sourceFilter, limit, false)
				if err != nil {
					return err
				}
				mu.Lock()
				lists = append(lists, hits)
				mu.Unlock()
			}

			if imagesExists {
				hits, err := r.queryCollection(gctx, r.imagesCollection, queryVector, sourceFilter, limit, true)
				if err != nil {
					return err
				}
				mu.Lock()
				lists = append(lists, hits)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := citation.MergeCandidates(lists...)
	return dedupeByID(merged), nil
}

// queryCollection runs one vector query. Image queries carry a hard
// content_type filter; hits that still come back without image_ocr
// are dropped rather than passed on mislabeled.
func (r *Retriever) queryCollection(ctx context.Context, collection string, queryVector []float32, sourceFilter string, limit int, imagesOnly bool) ([]citation.Candidate, error) {
	opts := []vector.QueryParamsOption{
		vector.WithPayload(true),
		vector.WithLimit(uint(limit)),
	}
	if sourceFilter != "" {
		opts = append(opts, vector.WithFilter(&vector.QueryMatch{
			Key:   vector.PayloadSource,
			Value: sourceFilter,
		}))
	}
	if imagesOnly {
		opts = append(opts, vector.WithFilter(&vector.QueryMatch{
			Key:   vector.PayloadContentType,
			Value: string(document.ContentTypeImageOCR),
		}))
	}

	hits, err := r.store.Query(ctx, vector.NewQueryParams(collection, queryVector, opts...))
	if err != nil {
		return nil, fmt.Errorf("query against '%s' failed: %w", collection, err)
	}

	candidates := make([]citation.Candidate, 0, len(hits))
	for _, hit := range hits {
		contentType := document.ContentType(hit.PayloadString(vector.PayloadContentType))
		if contentType == "" {
			contentType = document.ContentTypeText
		}
		if imagesOnly && contentType != document.ContentTypeImageOCR {
			slog.Warn("dropping mislabeled hit from images collection", "id", hit.ID, "content_type", contentType)
			continue
		}

		candidates = append(candidates, citation.Candidate{
			ID:          hit.ID,
			Source:      hit.PayloadString(vector.PayloadSource),
			Page:        hit.PayloadInt(vector.PayloadPage),
			Text:        hit.PayloadString(vector.PayloadText),
			ContentType: contentType,
			Similarity:  float64(hit.Score),
		})
	}
	return candidates, nil
}

// rerank scores candidates against the original query. On provider
// failure the similarity ordering is kept.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []citation.Candidate, topN int) []citation.Candidate {
	if !r.rerankEnabled || r.reranker == nil || len(candidates) == 0 {
		return candidates
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	results, err := r.reranker.Rerank(ctx, query, docs, min(topN, len(docs)))
	if err != nil {
		slog.Warn("rerank failed, keeping similarity order", "error", err)
		return candidates
	}

	for _, res := range results {
		if res.Index < 0 || res.Index >= len(candidates) {
			continue
		}
		score := res.Score
		candidates[res.Index].RerankScore = &score
	}
	return candidates
}

func (r *Retriever) synthesize(ctx context.Context, query string, citations []document.Citation) (string, error) {
	var sb strings.Builder
	for i, c := range citations {
		fmt.Fprintf(&sb, "[%d] (%s, page %d) %s\n", i+1, c.Source, c.Page, c.FullText)
	}

	return r.lm.Generate(ctx, provider.GenerationRequest{
		Prompt: fmt.Sprintf(synthesisPrompt, query, sb.String()),
	})
}

// dedupeByID collapses repeated point IDs, keeping the best
// similarity seen. Subquery fan-out frequently returns the same point
// several times.
func dedupeByID(candidates []citation.Candidate) []citation.Candidate {
	seen := make(map[string]int, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if i, ok := seen[c.ID]; ok {
			if c.Similarity > out[i].Similarity {
				out[i].Similarity = c.Similarity
			}
			continue
		}
		seen[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}
