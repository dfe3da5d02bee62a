package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// entry stores a cached value with its creation time
type entry[V any] struct {
	value     V
	timestamp time.Time
	ttl       time.Duration
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.timestamp) > e.ttl
}

// Cache provides thread-safe key/value storage with per-entry expiration.
// Expired entries are removed when their key is next read; there is no
// background sweep.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a new empty cache
func New[V any](logger *zap.Logger) *Cache[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		now:     time.Now,
		logger:  logger,
	}
}

// SetClock replaces the time source (for testing)
func (c *Cache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the value for key if present and not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, exists := c.entries[key]
	if !exists {
		return zero, false
	}

	if e.expired(c.now()) {
		delete(c.entries, key)
		c.logger.Debug("Cache entry expired",
			zap.String("key", key),
			zap.Duration("ttl", e.ttl),
		)
		return zero, false
	}

	return e.value, true
}

// Set stores value under key for ttl
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{
		value:     value,
		timestamp: c.now(),
		ttl:       ttl,
	}

	c.logger.Debug("Cache entry stored",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)
}

// Invalidate removes a single key
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]*entry[V])
	c.logger.Debug("Cache cleared", zap.Int("count", count))
}

// Len returns the number of stored entries, including expired ones not yet read
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
