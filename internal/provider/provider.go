// Package provider wraps the external model services consumed by
// the pipelines: embeddings, reranking and text generation. All
// providers are treated as black boxes behind small interfaces so
// concrete bindings can be swapped per deployment.
package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidEmbedderType = errors.New("no embedder found for given type")
	ErrInvalidRerankerType = errors.New("no reranker found for given type")
	ErrInvalidLMType       = errors.New("no language model provider found for given type")
)

const (
	EmbedderTypeOpenAI = iota
)

const (
	RerankerTypeCohere = iota
)

const (
	LMTypeOpenAI = iota
	LMTypeGemini
)

type EmbedderType int
type RerankerType int
type LMType int

var embedderTypeMap = map[string]EmbedderType{
	"openai": EmbedderTypeOpenAI,
}

var rerankerTypeMap = map[string]RerankerType{
	"cohere": RerankerTypeCohere,
}

var lmTypeMap = map[string]LMType{
	"openai": LMTypeOpenAI,
	"gemini": LMTypeGemini,
}

// Embedder turns texts into dense vectors. Implementations must
// return one vector per input text, in input order.
type Embedder interface {
	EmbedQuery(ctx context.Context, q string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	GetDimensions() uint
}

// RerankResult scores the candidate at Index in the request's
// document list. Higher score means more relevant.
type RerankResult struct {
	Index int
	Score float64
}

type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]RerankResult, error)
}

type GenerationRequest struct {
	// Required
	Prompt string

	// Optional params
	ModelName   string
	Temperature float32
}

// LM generates a completion for a single prompt.
type LM interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

func ParseEmbedderType(name string) (EmbedderType, error) {
	t, ok := embedderTypeMap[name]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidEmbedderType, name)
	}
	return t, nil
}

func ParseRerankerType(name string) (RerankerType, error) {
	t, ok := rerankerTypeMap[name]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidRerankerType, name)
	}
	return t, nil
}

func ParseLMType(name string) (LMType, error) {
	t, ok := lmTypeMap[name]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidLMType, name)
	}
	return t, nil
}
