package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aris-ai/aris/internal/docstore"
	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/retrieval"
	"github.com/aris-ai/aris/internal/tasks"
	"github.com/aris-ai/aris/internal/transport"
)

const maxUploadBytes = 50 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rdb.Ping(r.Context()).Err(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadDocument accepts a multipart upload ("file" field),
// records the document as processing and enqueues ingestion.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' form field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	source := filepath.Base(header.Filename)
	if source == "" || source == "." {
		writeError(w, http.StatusBadRequest, "upload must carry a filename")
		return
	}

	documentID := uuid.NewString()
	record := &document.Record{
		DocumentID:   documentID,
		DocumentName: source,
		Status:       document.StatusProcessing,
		TextIndex:    s.config.TextCollection,
		ImagesIndex:  s.config.ImagesCollection,
	}
	if err := s.docs.Put(r.Context(), record); err != nil {
		slog.Error("failed to create document record", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	t, err := tasks.NewIngestTask(documentID, source, content)
	if err != nil {
		slog.Error("failed to build ingest task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	info, err := s.asynqClient.Enqueue(t)
	if err != nil {
		slog.Error("failed to enqueue ingest task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	slog.Info("enqueued ingest task", "task", info.ID, "document", documentID, "source", source)

	writeJSON(w, http.StatusAccepted, record)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := s.docs.List(r.Context())
	if err != nil {
		slog.Error("failed to list documents", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": records})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.docs.Get(r.Context(), id)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		slog.Error("failed to load document", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.docs.Get(r.Context(), id)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		slog.Error("failed to load document", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	t, err := tasks.NewDeleteTask(record.DocumentID, record.DocumentName)
	if err != nil {
		slog.Error("failed to build delete task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if _, err := s.asynqClient.Enqueue(t); err != nil {
		slog.Error("failed to enqueue delete task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": record.DocumentID,
		"status":      "deleting",
	})
}

type queryRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	Source     string `json:"source"`
	Synthesize bool   `json:"synthesize"`
}

type queryResponse struct {
	TraceID    string              `json:"trace_id"`
	Answer     string              `json:"answer,omitempty"`
	Citations  []document.Citation `json:"citations"`
	Subqueries []string            `json:"subqueries,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	traceID := uuid.NewString()
	trace := &transport.RequestTrace{
		ID:        traceID,
		Status:    transport.TraceStatusRunning,
		StartedAt: time.Now().UnixNano(),
		Query:     req.Query,
	}
	if err := s.transport.SetTrace(r.Context(), trace); err != nil {
		slog.Error("failed to set trace", "id", traceID, "err", err)
	}

	res, err := s.retriever.Retrieve(r.Context(), retrieval.Params{
		Query:        req.Query,
		TopK:         req.TopK,
		SourceFilter: req.Source,
		Synthesize:   req.Synthesize,
	})

	trace.CompletedAt = time.Now().UnixNano()
	if err != nil {
		trace.Status = transport.TraceStatusFailed
		trace.Error = err.Error()
	} else {
		trace.Status = transport.TraceStatusCompleted
		trace.Answer = res.Answer
	}
	if terr := s.transport.SetTrace(r.Context(), trace); terr != nil {
		slog.Error("failed to set trace", "id", traceID, "err", terr)
	}

	if err != nil {
		slog.Error("query failed", "id", traceID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		TraceID:    traceID,
		Answer:     res.Answer,
		Citations:  res.Citations,
		Subqueries: res.Subqueries,
	})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trace, err := s.transport.GetTrace(r.Context(), id)
	if errors.Is(err, transport.ErrTraceNotFound) {
		writeError(w, http.StatusNotFound, "trace not found")
		return
	}
	if err != nil {
		slog.Error("failed to load trace", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, trace)
}
