package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

const embedMaxBatchSize = 2048

type OpenAIProvider struct {
	client     *openai.Client
	vectorDims int
}

func NewOpenAIProvider() *OpenAIProvider {
	c := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
	return &OpenAIProvider{
		client:     c,
		vectorDims: 1024,
	}
}

func (p OpenAIProvider) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	openaiReq := &openai.EmbeddingRequestStrings{
		Input:          []string{q},
		Model:          "text-embedding-3-small",
		EncodingFormat: "float",
		Dimensions:     p.vectorDims,
	}

	res, err := p.client.CreateEmbeddings(ctx, openaiReq)
	if err != nil {
		return nil, err
	}

	return res.Data[0].Embedding, nil
}

func (p OpenAIProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedMaxBatchSize {
		end := min(start+embedMaxBatchSize, len(texts))

		openaiReq := &openai.EmbeddingRequestStrings{
			Input:          texts[start:end],
			Model:          "text-embedding-3-small",
			EncodingFormat: "float",
			Dimensions:     p.vectorDims,
		}

		res, err := p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings for batch at %d: %w", start, err)
		}

		for _, e := range res.Data {
			vectors = append(vectors, e.Embedding)
		}
	}

	return vectors, nil
}

func (p OpenAIProvider) GetDimensions() uint {
	return uint(p.vectorDims)
}

func (p OpenAIProvider) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:       openai.GPT4Dot1Mini,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}

	res, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return "", err
	}

	if len(res.Choices) == 0 {
		return "", fmt.Errorf("completion request returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}
