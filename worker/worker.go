// Package worker runs the background task server consuming ingestion
// and deletion tasks.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/aris-ai/aris/internal/config"
	"github.com/aris-ai/aris/internal/docstore"
	"github.com/aris-ai/aris/internal/embedcache"
	"github.com/aris-ai/aris/internal/http"
	"github.com/aris-ai/aris/internal/ingest"
	"github.com/aris-ai/aris/internal/parser"
	"github.com/aris-ai/aris/internal/provider"
	"github.com/aris-ai/aris/internal/splitter"
	"github.com/aris-ai/aris/internal/tasks"
	"github.com/aris-ai/aris/internal/transport"
	"github.com/aris-ai/aris/internal/vector"
)

type Worker struct {
	conf        config.Config
	concurrency int
}

func New(conf config.Config, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Worker{
		conf:        conf,
		concurrency: concurrency,
	}
}

func (w *Worker) Start() error {
	rdb := redis.NewClient(&redis.Options{
		Addr: w.conf.RedisAddr,
	})
	defer rdb.Close()

	asynqServer := asynq.NewServerFromRedisClient(
		rdb,
		asynq.Config{
			Concurrency: w.concurrency,
		},
	)

	tp := transport.NewRedisTransport(rdb)
	docs := docstore.NewRedisStore(rdb)

	vs, err := vector.NewStore("qdrant", w.conf.QdrantAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vs.Close()

	embedderType, err := provider.ParseEmbedderType(w.conf.Providers.Embedder)
	if err != nil {
		return err
	}
	embedder, err := provider.NewEmbedder(embedderType)
	if err != nil {
		return err
	}
	cache := embedcache.New(embedder, embedcache.WithMaxEntries(w.conf.Pipeline.CacheMaxEntries))

	split, err := splitter.New(
		splitter.WithChunkSize(w.conf.Pipeline.ChunkSize),
		splitter.WithOverlap(w.conf.Pipeline.ChunkOverlap),
	)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(ingest.PipelineParams{
		Parsers:          buildParsers(w.conf),
		Splitter:         split,
		Embedder:         cache,
		Store:            vs,
		TextCollection:   w.conf.Collections.Text,
		ImagesCollection: w.conf.Collections.Images,
		GapTolerance:     w.conf.Pipeline.GapTolerance,
	})

	handler := tasks.NewTaskHandler(pipeline, docs, tp)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeIngest, handler)
	mux.Handle(tasks.TypeDelete, handler)

	slog.Info("worker starting", "concurrency", w.concurrency)
	return asynqServer.Run(mux)
}

// buildParsers registers plain parsing for text formats and, when a
// parse service is configured, the remote parser for rich formats.
func buildParsers(conf config.Config) *parser.Registry {
	parsers := parser.NewRegistry()

	plain := parser.NewPlainParser()
	parsers.Register(".txt", plain)
	parsers.Register(".md", plain)

	if conf.ParseService.Endpoint == "" {
		slog.Warn("no parse service configured, only plain text formats supported")
		return parsers
	}

	opts := []http.ClientOption{
		http.WithMaxRetries(conf.ParseService.MaxRetries),
		http.WithTimeout(5 * time.Minute),
	}
	if conf.ParseService.ApiKey != "" {
		opts = append(opts, http.WithApiKey(conf.ParseService.ApiKey))
	}
	remote := parser.NewRemoteParser(conf.ParseService.Endpoint, opts...)

	for _, ext := range []string{".pdf", ".docx", ".pptx", ".html"} {
		parsers.Register(ext, remote)
	}
	return parsers
}
