// Package tasks defines the asynq task types exchanged between the
// gateway and the workers, and the handler that executes them.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeIngest = "aris:ingest"
	TypeDelete = "aris:delete"
)

type ingestTaskPayload struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Content    []byte `json:"content"`
}

func NewIngestTask(documentID, source string, content []byte) (*asynq.Task, error) {
	tp := ingestTaskPayload{
		DocumentID: documentID,
		Source:     source,
		Content:    content,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeIngest, payload, asynq.MaxRetry(3)), nil
}

type deleteTaskPayload struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
}

func NewDeleteTask(documentID, source string) (*asynq.Task, error) {
	tp := deleteTaskPayload{
		DocumentID: documentID,
		Source:     source,
	}
	payload, err := json.Marshal(tp)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDelete, payload, asynq.MaxRetry(3)), nil
}
