package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/aris-ai/aris/internal/docstore"
	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/ingest"
	"github.com/aris-ai/aris/internal/transport"
)

type TaskHandler struct {
	pipeline  *ingest.Pipeline
	docs      docstore.Store
	transport transport.Transport
}

func NewTaskHandler(pipeline *ingest.Pipeline, docs docstore.Store, tp transport.Transport) *TaskHandler {
	return &TaskHandler{
		pipeline:  pipeline,
		docs:      docs,
		transport: tp,
	}
}

func (h *TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	switch t.Type() {
	case TypeIngest:
		return h.processIngest(ctx, t)
	case TypeDelete:
		return h.processDelete(ctx, t)
	default:
		return fmt.Errorf("unrecognized task type '%s' (%w)", t.Type(), asynq.SkipRetry)
	}
}

func (h *TaskHandler) processIngest(ctx context.Context, t *asynq.Task) error {
	var p ingestTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid ingest payload: %v (%w)", err, asynq.SkipRetry)
	}
	slog.Info("received ingest task", "id", p.DocumentID, "source", p.Source, "bytes", len(p.Content))

	ms, err := h.transport.GetMessageStream(p.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to initialize message stream: %v (%w)", err, asynq.SkipRetry)
	}

	msgId := 0
	progress := func(stage string) {
		err := ms.Send(ctx, transport.MessageStreamPayload{
			ID:     msgId,
			Status: "OK",
			Type:   transport.MessageTypeProgress,
			Stage:  stage,
		})
		if err != nil {
			slog.Debug("failed sending progress message", "id", p.DocumentID, "stage", stage)
		}
		msgId++
	}

	res, err := h.pipeline.Run(ctx, p.Source, p.Content, progress)
	if err != nil {
		slog.Error("ingestion failed", "id", p.DocumentID, "source", p.Source, "error", err)
		h.updateRecord(ctx, p.DocumentID, func(r *document.Record) {
			r.Status = document.StatusFailed
		})
		ms.Send(ctx, transport.MessageStreamPayload{
			ID:      msgId,
			Status:  "ERR",
			Content: "ingestion failed",
		})
		return err
	}

	h.updateRecord(ctx, p.DocumentID, func(r *document.Record) {
		r.Status = document.StatusReady
		r.ChunksCreated = res.ChunksCreated
		r.ImageCount = res.ImageCount
		r.ParserUsed = res.ParserUsed
		r.Version++
	})

	ms.Send(ctx, transport.MessageStreamPayload{
		ID:      msgId,
		Status:  "DONE",
		Type:    transport.MessageTypeResult,
		Content: fmt.Sprintf("indexed %d chunks, %d images", res.ChunksCreated, res.ImageCount),
	})
	slog.Info("ingestion finished", "id", p.DocumentID, "chunks", res.ChunksCreated, "images", res.ImageCount, "pages", res.PagesDetected)
	return nil
}

func (h *TaskHandler) processDelete(ctx context.Context, t *asynq.Task) error {
	var p deleteTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid delete payload: %v (%w)", err, asynq.SkipRetry)
	}
	slog.Info("received delete task", "id", p.DocumentID, "source", p.Source)

	if err := h.pipeline.Delete(ctx, p.Source); err != nil {
		return fmt.Errorf("failed to delete vectors for '%s': %w", p.Source, err)
	}

	if err := h.docs.Delete(ctx, p.DocumentID); err != nil {
		return fmt.Errorf("failed to delete record '%s': %w", p.DocumentID, err)
	}
	return nil
}

// updateRecord applies fn to the stored record, tolerating a missing
// one so ingestion results are never lost to a registry hiccup.
func (h *TaskHandler) updateRecord(ctx context.Context, documentID string, fn func(*document.Record)) {
	record, err := h.docs.Get(ctx, documentID)
	if errors.Is(err, docstore.ErrNotFound) {
		record = &document.Record{DocumentID: documentID}
	} else if err != nil {
		slog.Error("failed to load document record", "id", documentID, "error", err)
		return
	}

	fn(record)
	if err := h.docs.Put(ctx, record); err != nil {
		slog.Error("failed to update document record", "id", documentID, "error", err)
	}
}
