package canvas

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// DefaultChartCacheSize bounds the number of rendered documents kept.
const DefaultChartCacheSize = 256

// RenderCache memoizes rendered chart documents per widget and definition.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered chart documents for a TTL. When full, the entry
// closest to expiry is evicted first.
type ChartCache struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu      sync.Mutex
	entries map[string]renderedChart
}

type renderedChart struct {
	doc     string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return NewBoundedChartCache(ttl, DefaultChartCacheSize)
}

// NewBoundedChartCache builds a cache holding at most size documents.
func NewBoundedChartCache(ttl time.Duration, size int) *ChartCache {
	if size <= 0 {
		size = DefaultChartCacheSize
	}
	return &ChartCache{
		ttl:     ttl,
		max:     size,
		now:     time.Now,
		entries: make(map[string]renderedChart, size),
	}
}

// GetOrRender returns the cached document for key or renders it. Failed
// renders are never cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if doc, ok := c.get(key); ok {
		return doc, nil
	}
	doc, err := render()
	if err != nil {
		return "", err
	}
	c.put(key, doc)
	return doc, nil
}

// Len reports the number of live entries.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops expired entries.
func (c *ChartCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked(c.now())
}

func (c *ChartCache) purgeLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.doc, true
}

func (c *ChartCache) put(key, doc string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.purgeLocked(now)
		if len(c.entries) >= c.max {
			c.evictSoonestLocked()
		}
	}
	c.entries[key] = renderedChart{doc: doc, expires: now.Add(c.ttl)}
}

func (c *ChartCache) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for key, entry := range c.entries {
		if victim == "" || entry.expires.Before(soonest) {
			victim, soonest = key, entry.expires
		}
	}
	delete(c.entries, victim)
}

// contentHash returns a deterministic hash of any JSON-encodable value.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
