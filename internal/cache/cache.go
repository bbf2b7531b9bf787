package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL-bounded read-path memoizer for one logical namespace. It is
// never the system of record: every value must be reconstructible from the
// store underneath it.
type Cache struct {
	name       string
	maxSize    int
	defaultTTL time.Duration

	mu      sync.Mutex
	entries map[string]entry

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a cache and starts its background sweep. Close releases the
// sweeper goroutine.
func New(name string, maxSize int, defaultTTL, sweepInterval time.Duration) *Cache {
	c := &Cache{
		name:       name,
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		entries:    make(map[string]entry),
		stop:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Key builds a cache key from an operation name and its arguments.
func Key(op string, args ...any) string {
	if len(args) == 0 {
		return op
	}
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return op + ":" + strings.Join(parts, ":")
}

// Get returns the cached value if present and not expired. Expired entries
// are evicted lazily here rather than waiting for the sweep.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !time.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl falls back to the cache
// default. At capacity the entry closest to expiry is evicted first.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictSoonestLocked()
	}
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidatePattern drops every entry whose key contains substr. Used after
// writes that could leave derived reads stale.
func (c *Cache) InvalidatePattern(substr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.Contains(key, substr) {
			delete(c.entries, key)
		}
	}
}

// Flush empties the namespace.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictSoonestLocked drops the entry with the earliest expiry, an
// approximation of LRU in TTL order. Caller holds mu.
func (c *Cache) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.expiresAt.Before(soonest) {
			victim = key
			soonest = e.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, victim)
	}
}

// Registry holds the one cache instance per logical domain. Instances are
// constructed once at process start and injected; there are no package-level
// singletons.
type Registry struct {
	Users        *Cache
	Developments *Cache
	Units        *Cache
	Sales        *Cache
	Documents    *Cache
	Finance      *Cache
}

func NewRegistry(maxSize int, defaultTTL, sweepInterval time.Duration) *Registry {
	build := func(name string) *Cache {
		return New(name, maxSize, defaultTTL, sweepInterval)
	}
	return &Registry{
		Users:        build("users"),
		Developments: build("developments"),
		Units:        build("units"),
		Sales:        build("sales"),
		Documents:    build("documents"),
		Finance:      build("finance"),
	}
}

func (r *Registry) Close() {
	for _, c := range []*Cache{r.Users, r.Developments, r.Units, r.Sales, r.Documents, r.Finance} {
		c.Close()
	}
}
