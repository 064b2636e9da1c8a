// Package cache provides in-memory query result caching for the RAG pipeline.
package cache

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/connexus-ai/secondbrain/internal/model"
)

// QueryCache caches retrieval hits by (query, topK, alpha). Thread-safe via
// sync.RWMutex. Entries auto-expire after TTL.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	stopCh  chan struct{}
}

type cacheEntry struct {
	hits      []model.Hit
	createdAt time.Time
	expiresAt time.Time
}

// New creates a QueryCache with the given TTL and starts background cleanup.
func New(ttl time.Duration) *QueryCache {
	c := &QueryCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns cached hits if present and not expired.
func (c *QueryCache) Get(query string, topK int, alpha float64) ([]model.Hit, bool) {
	key := cacheKey(query, topK, alpha)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	slog.Info("[CACHE] hit", "query_hash", key, "age_ms", time.Since(entry.createdAt).Milliseconds())
	return entry.hits, true
}

// Set stores hits in the cache.
func (c *QueryCache) Set(query string, topK int, alpha float64, hits []model.Hit) {
	key := cacheKey(query, topK, alpha)
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		hits:      hits,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()

	slog.Info("[CACHE] set", "query_hash", key, "ttl_s", int(c.ttl.Seconds()), "total_entries", c.Len())
}

// Reset clears every cached entry. Call this after ingesting a document,
// since a new chunk can change the result set for any previously cached
// query.
func (c *QueryCache) Reset() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
	if n > 0 {
		slog.Info("[CACHE] reset", "entries_removed", n)
	}
}

// Len returns the number of entries in the cache.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop halts the background cleanup goroutine.
func (c *QueryCache) Stop() {
	close(c.stopCh)
}

// cleanup removes expired entries every 5 minutes.
func (c *QueryCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			before := len(c.entries)
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			after := len(c.entries)
			c.mu.Unlock()
			if before != after {
				slog.Info("[CACHE] cleanup", "removed", before-after, "remaining", after)
			}
		case <-c.stopCh:
			return
		}
	}
}

// cacheKey builds a deterministic key: "qc:{topK}:{alpha}:{sha256(query)}"
func cacheKey(query string, topK int, alpha float64) string {
	h := sha256.Sum256([]byte(query))
	return fmt.Sprintf("qc:%d:%.4f:%x", topK, alpha, h[:8])
}
