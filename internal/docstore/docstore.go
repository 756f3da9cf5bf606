// Package docstore persists the document registry in redis: one hash
// per document plus a set of known IDs for listing.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aris-ai/aris/internal/document"
)

var ErrNotFound = errors.New("document not found")

const (
	recordKeyPrefix = "aris:doc:"
	indexKey        = "aris:docs"
)

type Store interface {
	Put(ctx context.Context, record *document.Record) error
	Get(ctx context.Context, documentID string) (*document.Record, error)
	List(ctx context.Context) ([]*document.Record, error)
	Delete(ctx context.Context, documentID string) error
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Put(ctx context.Context, record *document.Record) error {
	key := recordKeyPrefix + record.DocumentID

	if err := s.rdb.HSet(ctx, key, record).Err(); err != nil {
		return fmt.Errorf("failed to write document record '%s': %w", record.DocumentID, err)
	}
	return s.rdb.SAdd(ctx, indexKey, record.DocumentID).Err()
}

func (s *RedisStore) Get(ctx context.Context, documentID string) (*document.Record, error) {
	res := s.rdb.HGetAll(ctx, recordKeyPrefix+documentID)
	if err := res.Err(); err != nil {
		return nil, err
	}
	if len(res.Val()) == 0 {
		return nil, ErrNotFound
	}

	var record document.Record
	if err := res.Scan(&record); err != nil {
		return nil, fmt.Errorf("failed to decode document record '%s': %w", documentID, err)
	}
	return &record, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*document.Record, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*document.Record, 0, len(ids))
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisStore) Delete(ctx context.Context, documentID string) error {
	if err := s.rdb.Del(ctx, recordKeyPrefix+documentID).Err(); err != nil {
		return err
	}
	return s.rdb.SRem(ctx, indexKey, documentID).Err()
}
