// Package cache provides an in-process key/value store with per-entry expiry.
//
// Expiring backs short-lived state that must not outlive its deadline, such
// as pending registrations awaiting an emailed code and idempotency replays.
// Expired entries are invisible to readers immediately and are reclaimed by a
// background cleanup loop.
//
//	pending := cache.NewExpiring[string, *model.PendingRegistration](cache.Config{TTL: 15 * time.Minute})
//	defer pending.Stop()
package cache

import (
	"sync"
	"time"
)

// Config holds configuration for an Expiring cache
type Config struct {
	TTL     time.Duration // Default entry lifetime (default 10 minutes)
	Cleanup time.Duration // Cleanup interval (default 1 minute)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Expiring is a concurrency-safe map whose entries expire
type Expiring[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewExpiring creates a cache and starts its cleanup loop. Call Stop to end it.
func NewExpiring[K comparable, V any](cfg Config) *Expiring[K, V] {
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Minute
	}

	c := &Expiring[K, V]{
		entries:  make(map[K]entry[V]),
		ttl:      cfg.TTL,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go c.cleanupLoop(cfg.Cleanup)

	return c
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *Expiring[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// TTL returns the default entry lifetime
func (c *Expiring[K, V]) TTL() time.Duration {
	return c.ttl
}

func (c *Expiring[K, V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-c.stopChan:
			return
		}
	}
}

// Purge removes expired entries and returns how many were dropped
func (c *Expiring[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Get returns the live value for key
func (c *Expiring[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(key)
}

func (c *Expiring[K, V]) getLocked(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL, replacing any previous value
func (c *Expiring[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with an explicit lifetime
func (c *Expiring[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// SetIfAbsent stores value only when key has no live entry. It returns the
// live value and true when one already existed.
func (c *Expiring[K, V]) SetIfAbsent(key K, value V, ttl time.Duration) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.getLocked(key); ok {
		return existing, true
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	return value, false
}

// Update applies fn to the live value for key while holding the lock. The
// entry keeps its original deadline; returning keep=false deletes it.
func (c *Expiring[K, V]) Update(key K, fn func(v V) (next V, keep bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return false
	}
	next, keep := fn(e.value)
	if !keep {
		delete(c.entries, key)
		return true
	}
	c.entries[key] = entry[V]{value: next, expiresAt: e.expiresAt}
	return true
}

// Take returns and removes the live value for key
func (c *Expiring[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.getLocked(key)
	delete(c.entries, key)
	return v, ok
}

// Delete removes key
func (c *Expiring[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of stored entries, including expired ones not yet purged
func (c *Expiring[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
