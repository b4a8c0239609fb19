package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/repository"
)

// DefaultIdleTimeout is how long an unused identity store stays cached.
const DefaultIdleTimeout = 30 * time.Minute

// IdentityRegistry hands out one IdentityStore per device. Stores are
// created and restored on first use and dropped after sitting idle; all of
// their state is persisted, so a dropped store is rebuilt on the next
// request. It is safe for concurrent use.
type IdentityRegistry struct {
	mu      sync.Mutex
	kv      domain.KeyValueStore
	stores  map[string]*registryEntry
	idle    time.Duration
	opts    []IdentityOption
	stop    chan struct{}
	stopped sync.Once
}

type registryEntry struct {
	store    *IdentityStore
	lastUsed time.Time
}

// NewIdentityRegistry creates a registry over the shared key-value store.
// It starts a background goroutine that evicts stores unused for idle;
// call Close to stop it.
func NewIdentityRegistry(kv domain.KeyValueStore, idle time.Duration, opts ...IdentityOption) *IdentityRegistry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	r := &IdentityRegistry{
		kv:     kv,
		stores: make(map[string]*registryEntry),
		idle:   idle,
		opts:   opts,
		stop:   make(chan struct{}),
	}
	go r.cleanup()
	return r
}

// For returns the identity store of deviceID, restoring it from storage if
// it is not cached.
func (r *IdentityRegistry) For(ctx context.Context, deviceID string) (*IdentityStore, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: empty device id", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	if e, ok := r.stores[deviceID]; ok {
		e.lastUsed = time.Now()
		r.mu.Unlock()
		return e.store, nil
	}
	r.mu.Unlock()

	scoped := repository.NewNamespaced(r.kv, repository.DevicePrefix(deviceID))
	store := NewIdentityStore(scoped, r.opts...)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init identity store: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another request may have restored the same device meanwhile.
	if e, ok := r.stores[deviceID]; ok {
		e.lastUsed = time.Now()
		return e.store, nil
	}
	r.stores[deviceID] = &registryEntry{store: store, lastUsed: time.Now()}
	return store, nil
}

// Len returns the number of cached stores.
func (r *IdentityRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close stops the eviction goroutine and closes every cached store.
func (r *IdentityRegistry) Close() error {
	r.stopped.Do(func() { close(r.stop) })

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.stores {
		e.store.Close()
		delete(r.stores, id)
	}
	return nil
}

func (r *IdentityRegistry) cleanup() {
	ticker := time.NewTicker(max(r.idle/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.evictIdle(now.Add(-r.idle))
		}
	}
}

func (r *IdentityRegistry) evictIdle(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.stores {
		if e.lastUsed.Before(cutoff) {
			e.store.Close()
			delete(r.stores, id)
		}
	}
}
