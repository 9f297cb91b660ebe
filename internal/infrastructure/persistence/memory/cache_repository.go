// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nutriplan/dietplan/internal/ports/outbound"
)

// DefaultTTL applies when Set is called with a zero TTL
const DefaultTTL = 24 * time.Hour

// CacheItem represents a cached item
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

// CacheRepository implements outbound.CacheRepository on a size-bounded LRU.
// Expired items are dropped lazily when they are read.
type CacheRepository struct {
	items *lru.Cache[string, CacheItem]
	now   func() time.Time
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new in-memory cache repository holding at most
// size items
func NewCacheRepository(size int) (*CacheRepository, error) {
	items, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &CacheRepository{items: items, now: time.Now}, nil
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := r.items.Get(key)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}

	if r.now().After(item.ExpiresAt) {
		r.items.Remove(key)
		return nil, outbound.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	r.items.Add(key, CacheItem{
		Value:     stored,
		ExpiresAt: r.now().Add(ttl),
	})
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.items.Remove(key)
	return nil
}

// Exists reports whether a live item is stored under key
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	item, ok := r.items.Peek(key)
	if !ok {
		return false, nil
	}
	return !r.now().After(item.ExpiresAt), nil
}

// Ping always succeeds
func (r *CacheRepository) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored items, including expired ones not yet evicted
func (r *CacheRepository) Len() int {
	return r.items.Len()
}
