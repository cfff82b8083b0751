// Package cache provides a cost-bounded LRU cache.
//
// Entries carry a cost, typically their size in bytes. When the total cost
// exceeds the budget, least recently used entries are evicted until it fits
// again. An entry larger than the whole budget is not stored.
//
//	c := cache.New[string, []byte](64<<20, func(b []byte) int64 { return int64(len(b)) })
//	c.Put("sky.png", pixels)
//	pixels, ok := c.Get("sky.png")
//
// A Cache is not safe for concurrent use.
package cache
