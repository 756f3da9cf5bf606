package provider

import (
	"context"
	"os"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider() *GeminiProvider {
	// New methods might need error return
	// to handle error returns from client libs like genai
	c, _ := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	return &GeminiProvider{
		client: c,
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	model := "gemini-2.0-flash"
	if req.ModelName != "" {
		model = req.ModelName
	}

	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	res, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", err
	}

	return res.Text(), nil
}
