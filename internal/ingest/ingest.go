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

// Package ingest runs the document ingestion pipeline: parse, page
// assignment, image association, embedding and vector upsert.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/pages"
	"github.com/aris-ai/aris/internal/parser"
	"github.com/aris-ai/aris/internal/provider"
	"github.com/aris-ai/aris/internal/splitter"
	"github.com/aris-ai/aris/internal/vector"
)

// Pipeline stages reported through the progress callback.
const (
	StageParsing     = "parsing"
	StageChunking    = "chunking"
	StageAssociating = "associating_images"
	StageEmbedding   = "embedding"
	StageIndexing    = "indexing"
)

type Result struct {
	ChunksCreated int
	ImageCount    int
	PagesDetected int
	ParserUsed    string
}

type Pipeline struct {
	parsers  *parser.Registry
	splitter *splitter.Splitter
	embedder provider.Embedder
	store    vector.Store

	textCollection   string
	imagesCollection string
	gapTolerance     int
}

type PipelineParams struct {
	Parsers  *parser.Registry
	Splitter *splitter.Splitter
	Embedder provider.Embedder
	Store    vector.Store

	TextCollection   string
	ImagesCollection string
	GapTolerance     int
}

func NewPipeline(params PipelineParams) *Pipeline {
	return &Pipeline{
		parsers:          params.Parsers,
		splitter:         params.Splitter,
		embedder:         params.Embedder,
		store:            params.Store,
		textCollection:   params.TextCollection,
		imagesCollection: params.ImagesCollection,
		gapTolerance:     params.GapTolerance,
	}
}

// Run ingests one document. The progress callback receives stage
// names as the pipeline advances; pass nil to skip reporting.
func (p *Pipeline) Run(ctx context.Context, source string, data []byte, progress func(stage string)) (*Result, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	report(StageParsing)
	docParser, err := p.parsers.ForSource(source)
	if err != nil {
		return nil, err
	}
	parsed, err := docParser.Parse(ctx, source, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", source, err)
	}

	idx, err := pages.NewBoundaryIndex(parsed.Boundaries, p.gapTolerance)
	if err != nil {
		return nil, fmt.Errorf("document '%s' has malformed page boundaries: %w", source, err)
	}

	report(StageChunking)
	chunks := p.splitter.Split(parsed.Text, source)
	if len(chunks) == 0 {
		return nil, parser.ErrEmptyDocument
	}
	pages.NewResolver(idx).AssignPages(chunks)

	report(StageAssociating)
	ocrBlocks := make([]string, 0, len(parsed.Images))
	for _, img := range parsed.Images {
		ocrBlocks = append(ocrBlocks, img.OCRText)
	}
	images := pages.AssociateImages(source, parsed.Text, ocrBlocks, idx)

	report(StageEmbedding)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks for '%s': %w", source, err)
	}

	report(StageIndexing)
	points, err := vector.CreatePoints(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if err := p.upsert(ctx, p.textCollection, points); err != nil {
		return nil, fmt.Errorf("failed to index chunks for '%s': %w", source, err)
	}

	imageCount, err := p.indexImages(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("failed to index images for '%s': %w", source, err)
	}

	return &Result{
		ChunksCreated: len(chunks),
		ImageCount:    imageCount,
		PagesDetected: idx.Len(),
		ParserUsed:    docParser.Name(),
	}, nil
}

// Delete removes every vector belonging to source from both
// collections.
func (p *Pipeline) Delete(ctx context.Context, source string) error {
	if err := p.store.DeleteBySource(ctx, p.textCollection, source); err != nil {
		return err
	}
	return p.store.DeleteBySource(ctx, p.imagesCollection, source)
}

// indexImages embeds associated image OCR text into the images
// collection. Unassociated images and empty OCR blocks are skipped
// with a warning, never indexed with a guessed page.
func (p *Pipeline) indexImages(ctx context.Context, images []document.ExtractedImage) (int, error) {
	indexable := make([]document.Chunk, 0, len(images))
	for _, img := range images {
		if !img.Associated() || img.OCRText == "" {
			slog.Warn("skipping unassociated image", "source", img.Source, "image", img.ImageNumber)
			continue
		}
		indexable = append(indexable, document.Chunk{
			Text:       img.OCRText,
			Source:     img.Source,
			ChunkIndex: img.ImageNumber,
			Page:       img.Page,
			Metadata:   map[string]string{"content_type": string(document.ContentTypeImageOCR)},
		})
	}

	if len(indexable) == 0 {
		return 0, nil
	}

	texts := make([]string, len(indexable))
	for i, c := range indexable {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, err
	}

	points, err := vector.CreatePoints(indexable, vectors)
	if err != nil {
		return 0, err
	}
	if err := p.upsert(ctx, p.imagesCollection, points); err != nil {
		return 0, err
	}
	return len(indexable), nil
}

func (p *Pipeline) upsert(ctx context.Context, collection string, points []*vector.Point) error {
	exists, err := p.store.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		err := p.store.CreateCollection(ctx, vector.Collection{
			Name:       collection,
			Dimensions: p.embedder.GetDimensions(),
		})
		if err != nil {
			return err
		}
	}
	return p.store.Upsert(ctx, collection, points)
}
