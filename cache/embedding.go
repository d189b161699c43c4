package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// EmbeddingCache memoizes embedding vectors keyed by (text, language).
// A hit here skips both embedding backends entirely.
type EmbeddingCache struct {
	store Cache
}

// NewEmbeddingCache creates an embedding memo cache.
func NewEmbeddingCache(capacity int, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{store: NewLRU(capacity, ttl)}
}

// EmbeddingKey hashes (text, language) into a cache key.
func EmbeddingKey(text, language string) string {
	sum := sha1.Sum([]byte(language + "|" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the memoized vector for (text, language), if any.
func (c *EmbeddingCache) Get(text, language string) ([]float32, bool) {
	v, ok := c.store.Get(EmbeddingKey(text, language))
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	if !ok || len(vec) == 0 {
		// corrupted entry, treat as miss and evict
		c.store.Delete(EmbeddingKey(text, language))
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Put memoizes a successful embedding.
func (c *EmbeddingCache) Put(text, language string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.store.Set(EmbeddingKey(text, language), stored, 0)
}

// Len reports the number of live entries.
func (c *EmbeddingCache) Len() int { return c.store.Len() }
