package provider

func NewEmbedder(t EmbedderType) (Embedder, error) {
	switch t {
	case EmbedderTypeOpenAI:
		return NewOpenAIProvider(), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

func NewReranker(t RerankerType) (Reranker, error) {
	switch t {
	case RerankerTypeCohere:
		return NewCohereReranker(), nil
	default:
		return nil, ErrInvalidRerankerType
	}
}

func NewLM(t LMType) (LM, error) {
	switch t {
	case LMTypeOpenAI:
		return NewOpenAIProvider(), nil
	case LMTypeGemini:
		return NewGeminiProvider(), nil
	default:
		return nil, ErrInvalidLMType
	}
}
