package cache

import (
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)}
	c := NewMemoryCache(ttl)
	c.now = clock.now
	return c, clock
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache, _ := newTestCache(60 * time.Second)

	key := "https://example.com/service/publicJSONFeed?command=predictions&a=ttc&r=506&s=5278"
	value := []byte(`{"predictions": {}}`)

	if err := cache.Set(key, value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get() returned false, want true")
	}
	if string(got) != string(value) {
		t.Errorf("Get() = %q, want %q", got, value)
	}
}

func TestMemoryCache_StoresCopy(t *testing.T) {
	cache, _ := newTestCache(60 * time.Second)

	value := []byte("abc")
	_ = cache.Set("k", value)
	value[0] = 'x'

	got, _ := cache.Get("k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want %q", got, "abc")
	}
}

func TestMemoryCache_GetMissing(t *testing.T) {
	cache, _ := newTestCache(60 * time.Second)

	if _, ok := cache.Get("non-existent-key"); ok {
		t.Error("Get() returned true for non-existent key")
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache, clock := newTestCache(90 * time.Second)
	_ = cache.Set("key", []byte("value"))

	clock.t = clock.t.Add(89 * time.Second)
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("Get() returned false before expiry")
	}

	clock.t = clock.t.Add(2 * time.Second)
	if _, ok := cache.Get("key"); ok {
		t.Error("Get() returned true for expired entry")
	}
	if cache.size() != 0 {
		t.Errorf("size() = %d, want 0 after expired read", cache.size())
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	cache, _ := newTestCache(60 * time.Second)
	_ = cache.Set("k", []byte("abc"))

	got, _ := cache.Get("k")
	got[0] = 'x'

	again, _ := cache.Get("k")
	if string(again) != "abc" {
		t.Errorf("Get() = %q after mutating an earlier result, want %q", again, "abc")
	}
}

func TestMemoryCache_SetSweepsExpired(t *testing.T) {
	cache, clock := newTestCache(60 * time.Second)
	_ = cache.Set("old", []byte("value"))

	clock.t = clock.t.Add(45 * time.Second)
	_ = cache.Set("new", []byte("value"))
	if cache.size() != 2 {
		t.Fatalf("size() = %d, want 2 before the next sweep", cache.size())
	}

	clock.t = clock.t.Add(30 * time.Second)
	_ = cache.Set("newest", []byte("value"))

	if cache.size() != 2 {
		t.Errorf("size() = %d, want 2 after the expired entry was swept", cache.size())
	}
	if _, ok := cache.Get("new"); !ok {
		t.Error("Set() swept an entry that had not expired")
	}
}

func TestMemoryCache_SweepLocked(t *testing.T) {
	cache, clock := newTestCache(60 * time.Second)
	_ = cache.Set("a", []byte("value"))
	_ = cache.Set("b", []byte("value"))

	clock.t = clock.t.Add(61 * time.Second)
	cache.mu.Lock()
	removed := cache.sweepLocked(clock.t)
	cache.mu.Unlock()
	if removed != 2 {
		t.Errorf("sweepLocked() removed %d, want 2", removed)
	}
}
