package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/course-tracker/internal/domain"
)

// KVStore implements domain.KeyValueStore and domain.BatchWriter on the
// kv_entries table.
type KVStore struct {
	pool *pgxpool.Pool
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const upsertSQL = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get kv entry %q: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	return write(ctx, s.pool, domain.KVWrite{Key: key, Value: value})
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return write(ctx, s.pool, domain.KVWrite{Key: key, Delete: true})
}

// WriteBatch applies all writes inside one transaction.
func (s *KVStore) WriteBatch(ctx context.Context, writes []domain.KVWrite) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		if err := write(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit kv batch: %w", err)
	}
	return nil
}

func write(ctx context.Context, db execer, w domain.KVWrite) error {
	if w.Delete {
		if _, err := db.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, w.Key); err != nil {
			return fmt.Errorf("delete kv entry %q: %w", w.Key, err)
		}
		return nil
	}
	if _, err := db.Exec(ctx, upsertSQL, w.Key, w.Value); err != nil {
		return fmt.Errorf("set kv entry %q: %w", w.Key, err)
	}
	return nil
}
