package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Backend is an in-memory implementation of the contentstore.BlobStore interface.
// With a capacity set it behaves like a browser profile's key/value quota.
type Backend struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	capacity int
}

// Option configures the in-memory backend
type Option func(*Backend)

// WithCapacity limits the total stored bytes across all keys. Zero means unlimited.
func WithCapacity(bytes int) Option {
	return func(b *Backend) {
		b.capacity = bytes
	}
}

// New creates a new in-memory storage backend
func New(opts ...Option) *Backend {
	b := &Backend{
		objects: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Get returns a copy of the stored value
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, contentstore.ErrBlobNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of value, enforcing the capacity if one is set
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 {
		used := 0
		for k, v := range b.objects {
			if k != key {
				used += len(v)
			}
		}
		if used+len(key)+len(value) > b.capacity {
			return fmt.Errorf("%w: %d bytes requested, capacity %d", contentstore.ErrQuotaExceeded, len(value), b.capacity)
		}
	}

	data := make([]byte, len(value))
	copy(data, value)
	b.objects[key] = data
	return nil
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, key)
	return nil
}

// Size returns the number of bytes stored under key
func (b *Backend) Size(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects[key])
}
