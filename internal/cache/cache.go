package cache

// Cache is an LRU cache bounded by the total cost of its entries.
type Cache[K comparable, V any] struct {
	budget  int64
	costFn  func(V) int64
	total   int64
	entries map[K]*entry[K, V]
	order   lruList[K, V]
	stats   Stats
}

// New creates a cache holding at most budget total cost. costFn measures
// an entry; a nil costFn gives every entry a cost of 1. A budget of 0 or
// less disables the cache: Put stores nothing.
func New[K comparable, V any](budget int64, costFn func(V) int64) *Cache[K, V] {
	if costFn == nil {
		costFn = func(V) int64 { return 1 }
	}
	return &Cache[K, V]{
		budget:  budget,
		costFn:  costFn,
		entries: make(map[K]*entry[K, V]),
	}
}

// Get returns the value under key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	c.order.moveToFront(e)
	return e.value, true
}

// Put stores value under key, replacing any previous value, then evicts
// least recently used entries until the total cost fits the budget.
// It reports whether the value was stored.
func (c *Cache[K, V]) Put(key K, value V) bool {
	cost := c.costFn(value)
	if cost > c.budget {
		c.Remove(key)
		return false
	}
	if e, ok := c.entries[key]; ok {
		c.total += cost - e.cost
		e.value, e.cost = value, cost
		c.order.moveToFront(e)
	} else {
		e := &entry[K, V]{key: key, value: value, cost: cost}
		c.entries[key] = e
		c.order.pushFront(e)
		c.total += cost
	}
	for c.total > c.budget {
		c.evict(c.order.back())
	}
	return true
}

// Remove drops key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.drop(e)
	return true
}

// Clear drops every entry. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	clear(c.entries)
	c.order = lruList[K, V]{}
	c.total = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int { return c.order.len }

// Cost returns the total cost of the entries.
func (c *Cache[K, V]) Cost() int64 { return c.total }

// Stats returns hit, miss and eviction counts.
func (c *Cache[K, V]) Stats() Stats {
	s := c.stats
	s.Len = c.order.len
	s.Cost = c.total
	s.Budget = c.budget
	return s
}

func (c *Cache[K, V]) evict(e *entry[K, V]) {
	c.drop(e)
	c.stats.Evictions++
}

func (c *Cache[K, V]) drop(e *entry[K, V]) {
	c.order.unlink(e)
	delete(c.entries, e.key)
	c.total -= e.cost
}

// Stats describes cache usage.
type Stats struct {
	Len       int
	Cost      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	n := s.Hits + s.Misses
	if n == 0 {
		return 0
	}
	return float64(s.Hits) / float64(n)
}
