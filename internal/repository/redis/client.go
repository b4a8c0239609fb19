package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string // redis://host:port/db or rediss://... for TLS
	Password string // overrides the password embedded in URL when set
}

// DB owns a Redis client and exposes the key-value store built on it.
type DB struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis: REDIS_URL not configured")
	}

	// ParseURL enables TLS for the rediss scheme.
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	return NewFromClient(ctx, redis.NewClient(opts))
}

// NewFromClient wraps an existing client. Tests use it with miniredis.
func NewFromClient(ctx context.Context, client *redis.Client) (*DB, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}
	return &DB{client: client}, nil
}

// Migrate is a no-op; Redis needs no schema.
func (db *DB) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the Redis connection gracefully.
func (db *DB) Close() error {
	return db.client.Close()
}

// HealthCheck returns nil when Redis answers a PING.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.client.Ping(ctx).Err()
}

// KV returns the key-value store backed by this client.
func (db *DB) KV() *KVStore {
	return &KVStore{client: db.client}
}
