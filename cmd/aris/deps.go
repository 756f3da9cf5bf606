package main

import (
	"fmt"
	"log/slog"

	"github.com/aris-ai/aris/internal/citation"
	"github.com/aris-ai/aris/internal/config"
	"github.com/aris-ai/aris/internal/embedcache"
	"github.com/aris-ai/aris/internal/provider"
	"github.com/aris-ai/aris/internal/retrieval"
	"github.com/aris-ai/aris/internal/vector"
)

// buildRetriever wires the query-side stack from config: vector
// store, cached embedder, reranker, language model and the citation
// assembler. The returned closer releases the vector store client.
func buildRetriever(conf config.Config) (*retrieval.Retriever, func(), error) {
	vs, err := vector.NewStore("qdrant", conf.QdrantAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	closeStore := func() {
		if err := vs.Close(); err != nil {
			slog.Warn("failed to close vector store", "err", err)
		}
	}

	embedderType, err := provider.ParseEmbedderType(conf.Providers.Embedder)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	embedder, err := provider.NewEmbedder(embedderType)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	cache := embedcache.New(embedder, embedcache.WithMaxEntries(conf.Pipeline.CacheMaxEntries))

	var reranker provider.Reranker
	if conf.Pipeline.RerankEnabled {
		rerankerType, err := provider.ParseRerankerType(conf.Providers.Reranker)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		reranker, err = provider.NewReranker(rerankerType)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}

	lmType, err := provider.ParseLMType(conf.Providers.LM)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	lm, err := provider.NewLM(lmType)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	assembler := citation.NewAssembler(
		citation.WithDedupThreshold(conf.Pipeline.DedupThreshold),
	)

	retriever := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:         cache,
		Store:            vs,
		Reranker:         reranker,
		LM:               lm,
		Assembler:        assembler,
		TextCollection:   conf.Collections.Text,
		ImagesCollection: conf.Collections.Images,
		RerankEnabled:    conf.Pipeline.RerankEnabled,
		DecomposeEnabled: conf.Pipeline.DecomposeEnabled,
	})

	return retriever, closeStore, nil
}
