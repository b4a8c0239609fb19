// Package repository holds storage helpers shared by the key-value drivers.
package repository

import (
	"context"
	"fmt"

	"github.com/msomdec/course-tracker/internal/domain"
)

// Namespaced scopes every key of an underlying store under a fixed prefix,
// so several devices can share one database without seeing each other's
// entries.
type Namespaced struct {
	inner  domain.KeyValueStore
	prefix string
}

// NewNamespaced wraps inner so that keys are stored as "<prefix><key>".
func NewNamespaced(inner domain.KeyValueStore, prefix string) *Namespaced {
	return &Namespaced{inner: inner, prefix: prefix}
}

// DevicePrefix returns the key prefix used for a device namespace.
func DevicePrefix(deviceID string) string {
	return fmt.Sprintf("device:%s:", deviceID)
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// WriteBatch forwards to the inner store when it supports batches.
// Otherwise the writes are applied one by one in order and the first
// failure aborts the rest.
func (n *Namespaced) WriteBatch(ctx context.Context, writes []domain.KVWrite) error {
	scoped := make([]domain.KVWrite, len(writes))
	for i, w := range writes {
		scoped[i] = w
		scoped[i].Key = n.prefix + w.Key
	}

	if bw, ok := n.inner.(domain.BatchWriter); ok {
		return bw.WriteBatch(ctx, scoped)
	}
	return WriteSequential(ctx, n.inner, scoped)
}

// WriteSequential applies writes one at a time. It gives no atomicity: a
// failure part way leaves the earlier writes in place.
func WriteSequential(ctx context.Context, store domain.KeyValueStore, writes []domain.KVWrite) error {
	for _, w := range writes {
		var err error
		if w.Delete {
			err = store.Delete(ctx, w.Key)
		} else {
			err = store.Set(ctx, w.Key, w.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
