package domain

import "context"

// KeyValueStore is the durable substrate the identity store persists into.
// Get returns ErrNotFound when the key is absent. Deleting a missing key
// is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KVWrite is a single mutation inside a batch. A write with Delete set
// removes the key and ignores Value.
type KVWrite struct {
	Key    string
	Value  []byte
	Delete bool
}

// BatchWriter is implemented by stores that can apply several writes
// all-or-nothing.
type BatchWriter interface {
	WriteBatch(ctx context.Context, writes []KVWrite) error
}
