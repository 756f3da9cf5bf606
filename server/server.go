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

// Package server is the HTTP gateway: document uploads, the query
// endpoint and trace lookups. Heavy work is enqueued for the workers;
// queries run in-process.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/aris-ai/aris/internal/docstore"
	"github.com/aris-ai/aris/internal/retrieval"
	"github.com/aris-ai/aris/internal/transport"
)

type ServerConfig struct {
	ListenHost string
	ListenPort int

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	TextCollection   string
	ImagesCollection string

	AllowAllOrigins bool
}

func DefaultConfig() ServerConfig {
	return ServerConfig{
		ListenPort: 8080,
		RedisAddr:  "localhost:6379",
	}
}

type Server struct {
	config ServerConfig

	rdb         *redis.Client
	transport   transport.Transport
	asynqClient *asynq.Client
	docs        docstore.Store
	retriever   *retrieval.Retriever
}

func New(config ServerConfig, retriever *retrieval.Retriever) *Server {
	return &Server{
		config:    config,
		retriever: retriever,
	}
}

func (s *Server) Serve(ctx context.Context) error {
	s.rdb = redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Username: s.config.RedisUsername,
		Password: s.config.RedisPassword,
		DB:       s.config.RedisDB,
	})
	defer s.rdb.Close()

	s.transport = transport.NewRedisTransport(s.rdb)
	s.docs = docstore.NewRedisStore(s.rdb)

	s.asynqClient = asynq.NewClientFromRedisClient(s.rdb)
	defer s.asynqClient.Close()

	lisAddr := fmt.Sprintf("%s:%d", s.config.ListenHost, s.config.ListenPort)
	httpServer := &http.Server{
		Addr:              lisAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "err", err)
		}
	}()

	slog.Info("server starting", "listener", lisAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("failed to serve", "err", err)
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.config.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUploadDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)

		r.Post("/query", s.handleQuery)
		r.Get("/traces/{id}", s.handleGetTrace)
	})

	return r
}
