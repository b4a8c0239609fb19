package domain

import "context"

// Database defines lifecycle operations for the underlying storage backend.
// Each implementation (SQLite, Redis, Postgres) owns its own schema
// strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
