// Package cache provides bounded, time-expiring memoization of
// completion responses.
//
// Eviction policy: FIFO by insertion order plus a TTL. Reads never
// refresh recency - this is deliberately NOT an LRU. When the cache is
// at capacity, the single oldest-inserted entry is evicted; entries
// older than the TTL are treated as absent and evicted lazily on read.
//
// Information Hiding:
// - Fingerprint derivation (hash of model + trailing context + params)
// - Insertion-order bookkeeping
// - Thread-safe via mutex

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/richinex/chimera/llm"
)

const (
	// DefaultMaxSize is the default entry cap.
	DefaultMaxSize = 100
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 30 * time.Minute
	// contextWindow is how many trailing messages participate in the
	// fingerprint. Older history is ignored: two conversations differing
	// only before this window collide intentionally, trading precision
	// for hit rate.
	contextWindow = 10
)

type entry struct {
	text       string
	insertedAt time.Time
}

// Cache is a bounded FIFO+TTL response cache. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string // insertion order, oldest first
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given capacity and TTL. Non-positive
// values fall back to the defaults.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the clock (for tests).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// fingerprint is the JSON shape hashed into a cache key.
type fingerprint struct {
	Model       string            `json:"model"`
	Messages    []llm.ChatMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

// Key derives a deterministic cache key from the call parameters. Only
// the last 10 messages of context participate. Returns an error rather
// than panicking; callers treat a key error as a cache miss.
func Key(model string, messages []llm.ChatMessage, temperature float32, maxTokens int) (string, error) {
	window := messages
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}

	raw, err := json.Marshal(fingerprint{
		Model:       model,
		Messages:    window,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the cached response text for key, or absent. Entries older
// than the TTL are evicted lazily and reported absent.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.remove(key)
		return "", false
	}
	return e.text, true
}

// Put stores a response under key. At capacity, the single
// oldest-inserted entry is evicted first. Re-inserting an existing key
// refreshes its text and its insertion position.
func (c *Cache) Put(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}

	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[key] = entry{text: text, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// Len returns the number of stored entries, including any not yet
// lazily expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.order = nil
}

// remove deletes key from both the map and the order slice.
// Caller must hold c.mu.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
