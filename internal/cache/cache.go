// Package cache memoizes slowly changing discovery results for a short
// time-to-live.
package cache

import (
	"sync"
	"time"

	"codeberg.org/mutker/gpufreq/internal/clock"
	"codeberg.org/mutker/gpufreq/internal/vendor"
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 5 * time.Second

const (
	keyVendor    = "vendor"
	keyLastPath  = "last_path"
	keyMaxFreq   = "max_freq"
	keyMinFreq   = "min_freq"
	keyAvailFreq = "available_freqs"
	filePrefix   = "file:"
)

type entry struct {
	value      any
	insertedAt time.Time
}

// Cache is a keyed TTL store shared by the reader, the fallback reader
// and the monitor. Stale entries read as misses and stay in place until
// overwritten or cleared. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clock.Clock
	ttl     time.Duration
}

// New returns an empty Cache. A nil clock means real time; a
// non-positive ttl means DefaultTTL.
func New(c clock.Clock, ttl time.Duration) *Cache {
	if c == nil {
		c = clock.Real()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		clock:   c,
		ttl:     ttl,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, value any) {
	now := c.clock.Now()

	c.mu.Lock()
	c.entries[key] = entry{value: value, insertedAt: now}
	c.mu.Unlock()
}

// Clear drops every entry in one step; readers see either the full old
// contents or an empty cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len counts stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Vendor() (vendor.Vendor, bool) {
	v, ok := c.get(keyVendor)
	if !ok {
		return vendor.Unknown, false
	}
	return v.(vendor.Vendor), true
}

func (c *Cache) SetVendor(v vendor.Vendor) {
	c.set(keyVendor, v)
}

// LastPath is the concrete path that last produced a current frequency.
func (c *Cache) LastPath() (string, bool) {
	v, ok := c.get(keyLastPath)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *Cache) SetLastPath(path string) {
	c.set(keyLastPath, path)
}

func (c *Cache) MaxFrequency() (int, bool) {
	return c.getInt(keyMaxFreq)
}

func (c *Cache) SetMaxFrequency(mhz int) {
	c.set(keyMaxFreq, mhz)
}

func (c *Cache) MinFrequency() (int, bool) {
	return c.getInt(keyMinFreq)
}

func (c *Cache) SetMinFrequency(mhz int) {
	c.set(keyMinFreq, mhz)
}

func (c *Cache) AvailableFrequencies() ([]int, bool) {
	v, ok := c.get(keyAvailFreq)
	if !ok {
		return nil, false
	}
	return append([]int(nil), v.([]int)...), true
}

func (c *Cache) SetAvailableFrequencies(mhz []int) {
	c.set(keyAvailFreq, append([]int(nil), mhz...))
}

// FileContent returns the cached raw content of path.
func (c *Cache) FileContent(path string) (string, bool) {
	v, ok := c.get(filePrefix + path)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *Cache) SetFileContent(path, content string) {
	c.set(filePrefix+path, content)
}

func (c *Cache) getInt(key string) (int, bool) {
	v, ok := c.get(key)
	if !ok {
		return 0, false
	}
	return v.(int), true
}
