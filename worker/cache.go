package worker

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultCacheAge  = 5 * time.Minute
	DefaultCacheSize = 100
)

// Stats is a snapshot of cache usage.
type Stats struct {
	Size      int    `json:"size"`
	MaxSize   int    `json:"maxSize"`
	MaxAge    int64  `json:"maxAge"` // milliseconds
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type cacheEntry[T any] struct {
	key    string
	value  T
	stored time.Time
}

// Cache keeps results keyed by the structure of their input. Entries expire
// after maxAge and the oldest insertion is evicted once maxSize is reached.
type Cache[T any] struct {
	maxAge  time.Duration
	maxSize int
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is oldest

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func NewCache[T any](maxSize int, maxAge time.Duration) *Cache[T] {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if maxAge <= 0 {
		maxAge = DefaultCacheAge
	}
	return &Cache[T]{
		maxAge:  maxAge,
		maxSize: maxSize,
		now:     time.Now,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Key hashes the JSON encoding of input. Map keys are encoded in sorted
// order so equal structures always hash alike.
func Key(input any) (string, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	e := el.Value.(*cacheEntry[T])
	if c.now().Sub(e.stored) > c.maxAge {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry[T])
		e.value = value
		e.stored = c.now()
		c.order.MoveToBack(el)
		return
	}
	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry[T]).key)
		c.evictions.Add(1)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry[T]{key: key, value: value, stored: c.now()})
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[T]) Stats() Stats {
	return Stats{
		Size:      c.Len(),
		MaxSize:   c.maxSize,
		MaxAge:    c.maxAge.Milliseconds(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
