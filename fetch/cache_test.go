package fetch

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestCacheExpiresLazily(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewCache(time.Minute, WithClock(clock.Now))

	c.Set("ranches", []string{"a"})
	if _, ok := c.Get("ranches"); !ok {
		t.Fatal("expected fresh entry")
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get("ranches"); !ok {
		t.Fatal("entry should still be valid before the TTL")
	}

	clock.Advance(time.Second)
	if c.Len() != 1 {
		t.Fatal("expired entries are not swept before lookup")
	}
	if _, ok := c.Get("ranches"); ok {
		t.Fatal("entry should expire at the TTL")
	}
	if c.Len() != 0 {
		t.Error("lookup should evict the expired entry")
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := NewCache(time.Hour, WithClock(clock.Now))

	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)
	clock.Advance(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("short entry should have expired")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Errorf("long entry = %v, %v", v, ok)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}
