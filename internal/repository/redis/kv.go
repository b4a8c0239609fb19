package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KVStore implements domain.KeyValueStore with plain string keys. Values
// never expire.
type KVStore struct {
	client *redis.Client
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key %q: %w", key, err)
	}
	return data, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set key %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// WriteBatch sends the writes in a MULTI/EXEC transaction.
func (s *KVStore) WriteBatch(ctx context.Context, writes []domain.KVWrite) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			if w.Delete {
				pipe.Del(ctx, w.Key)
			} else {
				pipe.Set(ctx, w.Key, w.Value, 0)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}
