package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // evicts key1

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("expected size 3, got %d", c.Size())
	}
	if st := c.Stats(); st.Evictions != 1 || st.Misses != 1 || st.Hits != 3 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestLRUCacheRecentUseSurvives(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, the least recently used

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if v, found := c.Get("a"); !found || v != 1 {
		t.Errorf("a = %d, %v", v, found)
	}
}

func TestLRUCacheTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute).WithClock(func() time.Time { return now })

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(30 * time.Second)
	c.Set("b", "z") // refreshes b

	now = now.Add(45 * time.Second)
	if _, found := c.Get("a"); found {
		t.Error("a should have expired")
	}
	if v, found := c.Get("b"); !found || v != "z" {
		t.Errorf("b = %q, %v", v, found)
	}

	now = now.Add(time.Hour)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("expected 1 expired entry, got %d", removed)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	if n := c.Purge(); n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}
	if _, found := c.Get("a"); found {
		t.Fatal("purged entry still present")
	}
	c.Set("c", 3)
	if c.Size() != 1 {
		t.Fatalf("cache unusable after purge, size %d", c.Size())
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}
