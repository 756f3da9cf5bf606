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

package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aris-ai/aris/internal/document"
)

var (
	ErrInvalidStoreType      = errors.New("no vector store found for given type")
	ErrFailedStoreInitialize = errors.New("failed to initialise vector store")
)

// Payload keys stored alongside every point.
const (
	PayloadSource      = "source"
	PayloadText        = "text"
	PayloadPage        = "page"
	PayloadContentType = "content_type"
	PayloadChunkIndex  = "chunk_index"
)

const (
	StoreTypeQdrant = iota
)

var storeTypeMap = map[string]StoreType{
	"qdrant": StoreTypeQdrant,
}

type StoreType int

type Store interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, collection Collection) error

	Upsert(ctx context.Context, collectionName string, points []*Point) error
	DeleteBySource(ctx context.Context, collectionName string, source string) error

	Query(ctx context.Context, params *QueryParams) ([]*ScoredPoint, error)

	Close() error
}

func NewStore(storeName string, addr string) (Store, error) {
	storeType, ok := storeTypeMap[storeName]
	if !ok {
		return nil, ErrInvalidStoreType
	}

	switch storeType {
	case StoreTypeQdrant:
		store, err := NewQdrantStore(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedStoreInitialize, err)
		}

		return store, nil
	default:
		return nil, ErrInvalidStoreType
	}
}

type Collection struct {
	Name       string
	Dimensions uint
}

type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is one query hit. Score is the raw cosine similarity
// reported by the store.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

func (p *ScoredPoint) PayloadString(key string) string {
	if v, ok := p.Payload[key].(string); ok {
		return v
	}
	return ""
}

func (p *ScoredPoint) PayloadInt(key string) int {
	switch v := p.Payload[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// CreatePoints pairs chunks with their vectors. Inputs must be the
// same length and aligned by index.
func CreatePoints(chunks []document.Chunk, vectors [][]float32) ([]*Point, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk and vector counts differ: %d vs %d", len(chunks), len(vectors))
	}

	points := make([]*Point, 0, len(chunks))
	for i, chunk := range chunks {
		contentType := document.ContentTypeText
		if ct, ok := chunk.Metadata["content_type"]; ok {
			contentType = document.ContentType(ct)
		}

		points = append(points, &Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				PayloadSource:      chunk.Source,
				PayloadText:        chunk.Text,
				PayloadPage:        chunk.Page,
				PayloadContentType: string(contentType),
				PayloadChunkIndex:  chunk.ChunkIndex,
			},
		})
	}
	return points, nil
}

type QueryMatch struct {
	Key   string
	Value string
}

type QueryParams struct {
	collection  string
	query       []float32
	withPayload bool
	limit       uint
	filters     []*QueryMatch
}

func (qp *QueryParams) Collection() string {
	return qp.collection
}

func (qp *QueryParams) Filters() []*QueryMatch {
	return qp.filters
}

type QueryParamsOption func(*QueryParams)

func NewQueryParams(collection string, query []float32, opts ...QueryParamsOption) *QueryParams {
	qp := &QueryParams{
		collection:  collection,
		query:       query,
		withPayload: false,
		limit:       0,
		filters:     make([]*QueryMatch, 0),
	}

	for _, opt := range opts {
		opt(qp)
	}
	return qp
}

func WithPayload(w bool) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.withPayload = w
	}
}

func WithLimit(limit uint) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.limit = limit
	}
}

func WithFilter(filter *QueryMatch) QueryParamsOption {
	return func(qp *QueryParams) {
		qp.filters = append(qp.filters, filter)
	}
}
