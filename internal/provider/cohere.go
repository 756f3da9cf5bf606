package provider

import (
	"context"
	"os"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

type CohereReranker struct {
	client *cohereclient.Client
	model  string
}

func NewCohereReranker() *CohereReranker {
	c := cohereclient.NewClient(cohereclient.WithToken(os.Getenv("COHERE_API_KEY")))
	return &CohereReranker{
		client: c,
		model:  "rerank-v3.5",
	}
}

func (r CohereReranker) Rerank(ctx context.Context, query string, docs []string, topN int) ([]RerankResult, error) {
	req := &cohere.V2RerankRequest{
		Query:     query,
		Documents: docs,
		Model:     r.model,
		TopN:      &topN,
	}

	res, err := r.client.V2.Rerank(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]RerankResult, 0, len(res.Results))
	for _, item := range res.Results {
		results = append(results, RerankResult{
			Index: item.Index,
			Score: item.RelevanceScore,
		})
	}
	return results, nil
}
