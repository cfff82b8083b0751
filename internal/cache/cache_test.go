package cache

import (
	"strconv"
	"testing"
)

func byteLen(b []byte) int64 { return int64(len(b)) }

func TestGetPut(t *testing.T) {
	c := New[string, int](10, nil)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache found a value")
	}
	if !c.Put("a", 1) {
		t.Fatal("Put rejected a value")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get = %d, %v; want 1, true", v, ok)
	}

	c.Put("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get after replace = %d, want 2", v)
	}
	if c.Len() != 1 || c.Cost() != 1 {
		t.Errorf("Len/Cost = %d/%d, want 1/1", c.Len(), c.Cost())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, []byte](10, byteLen)
	c.Put("a", make([]byte, 4))
	c.Put("b", make([]byte, 4))
	c.Get("a") // b is now the oldest

	c.Put("c", make([]byte, 4))

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s was evicted", k)
		}
	}
	if c.Cost() != 8 {
		t.Errorf("Cost = %d, want 8", c.Cost())
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestReplaceUpdatesCost(t *testing.T) {
	c := New[string, []byte](10, byteLen)
	c.Put("a", make([]byte, 2))
	c.Put("b", make([]byte, 2))

	c.Put("a", make([]byte, 8))

	if c.Cost() != 10 {
		t.Errorf("Cost = %d, want 10", c.Cost())
	}
	c.Put("a", make([]byte, 9))
	if _, ok := c.Get("b"); ok {
		t.Error("b kept although a grew past the budget")
	}
	if c.Cost() != 9 || c.Len() != 1 {
		t.Errorf("Cost/Len = %d/%d, want 9/1", c.Cost(), c.Len())
	}
}

func TestOversizedEntry(t *testing.T) {
	c := New[string, []byte](4, byteLen)
	c.Put("small", make([]byte, 2))

	if c.Put("huge", make([]byte, 5)) {
		t.Error("Put stored an entry larger than the budget")
	}
	if _, ok := c.Get("small"); !ok {
		t.Error("oversized Put evicted other entries")
	}

	c.Put("small", make([]byte, 5))
	if _, ok := c.Get("small"); ok {
		t.Error("oversized replacement kept the stale value")
	}
}

func TestDisabled(t *testing.T) {
	c := New[string, int](0, nil)
	if c.Put("a", 1) {
		t.Error("disabled cache stored a value")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New[int, int](100, nil)
	for i := range 10 {
		c.Put(i, i)
	}

	if !c.Remove(3) || c.Remove(3) {
		t.Error("Remove did not report presence correctly")
	}
	if c.Len() != 9 {
		t.Errorf("Len = %d, want 9", c.Len())
	}

	c.Clear()
	if c.Len() != 0 || c.Cost() != 0 {
		t.Errorf("Len/Cost after Clear = %d/%d", c.Len(), c.Cost())
	}
	c.Put(1, 1)
	if v, ok := c.Get(1); !ok || v != 1 {
		t.Error("cache unusable after Clear")
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New[string, int](10, nil)
	if r := c.Stats().HitRate(); r != 0 {
		t.Errorf("HitRate before lookups = %v", r)
	}
	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 3 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 3/1", s.Hits, s.Misses)
	}
	if s.HitRate() != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", s.HitRate())
	}
}

func BenchmarkGet(b *testing.B) {
	c := New[string, int](1000, nil)
	for i := range 100 {
		c.Put(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for b.Loop() {
		c.Get("50")
	}
}

func BenchmarkPutEvict(b *testing.B) {
	c := New[int, int](64, nil)

	b.ResetTimer()
	for i := 0; b.Loop(); i++ {
		c.Put(i, i)
	}
}
