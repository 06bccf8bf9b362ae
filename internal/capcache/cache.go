package capcache

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/interop/compute"
)

// Query names the runtime call a Key memoizes.
type Query uint8

// Queries.
const (
	QueryImageMemory Query = iota + 1 // Runtime.ImageMemorySupport
	QueryImageHandle                  // Runtime.IsImageHandleSupported
)

func (q Query) String() string {
	switch q {
	case QueryImageMemory:
		return "image-memory"
	case QueryImageHandle:
		return "image-handle"
	default:
		return fmt.Sprintf("Query(%d)", uint8(q))
	}
}

// Key identifies one capability query.
type Key struct {
	Query   Query
	Kind    compute.ImageHandleKind
	MemType compute.ImageMemoryHandleType
	Desc    compute.ImageDescriptor
}

// ImageMemoryKey keys a query for whether memType is among the image
// memory representations available for desc.
func ImageMemoryKey(desc *compute.ImageDescriptor, memType compute.ImageMemoryHandleType) Key {
	return Key{Query: QueryImageMemory, MemType: memType, Desc: *desc}
}

// ImageHandleKey keys a query for whether a handle of kind can be created
// over memType memory laid out as desc.
func ImageHandleKey(kind compute.ImageHandleKind, desc *compute.ImageDescriptor, memType compute.ImageMemoryHandleType) Key {
	return Key{Query: QueryImageHandle, Kind: kind, MemType: memType, Desc: *desc}
}

// Cache is a thread-safe LRU cache with a soft limit.
//
// Cache must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*entry[V]
	softLimit int
	tick      int64

	hits, misses, evictions uint64
}

type entry[V any] struct {
	value V
	atime int64
}

// New creates a cache. A softLimit of 0 means unlimited.
func New[K comparable, V any](softLimit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*entry[V]),
		softLimit: max(softLimit, 0),
	}
}

// GetOrCreate returns the cached value or stores the result of create.
// create runs under the cache lock, so it is called at most once per key
// while the entry stays cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.hits++
		c.tick++
		e.atime = c.tick
		return e.value
	}
	c.misses++
	v := create()
	c.store(key, v)
	return v
}

// store inserts an entry. c.mu must be held.
func (c *Cache[K, V]) store(key K, value V) {
	c.tick++
	c.entries[key] = &entry[V]{value: value, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// Clear removes all entries. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[V])
	c.tick = 0
}

// evictOldest trims the cache to three quarters of the soft limit.
// c.mu must be held.
func (c *Cache[K, V]) evictOldest() {
	target := max(c.softLimit*3/4, 1)
	n := len(c.entries) - target
	if n <= 0 {
		return
	}

	type aged struct {
		key   K
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.atime})
	}
	slices.SortFunc(all, func(a, b aged) int { return cmp.Compare(a.atime, b.atime) })
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
	c.evictions += uint64(n)
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("capcache[%d/%d entries, %d hits, %d misses, %d evicted]",
		s.Len, s.Capacity, s.Hits, s.Misses, s.Evictions)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
