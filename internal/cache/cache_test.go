package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

type ttlCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newCaches(t *testing.T, clock *fakeClock) map[string]ttlCache {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "cache", "registry.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Shutdown(context.Background()) })

	return map[string]ttlCache{
		"memory": NewMemory().WithClock(clock.Now),
		"sqlite": sqlite.WithClock(clock.Now),
	}
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for name, c := range newCaches(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "cvr_data_" + name

			if _, ok, err := c.Get(ctx, key); ok || err != nil {
				t.Fatalf("empty Get = %v, %v", ok, err)
			}
			if err := c.Set(ctx, key, []byte(`{"name":"Acme"}`), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, ok, err := c.Get(ctx, key)
			if err != nil || !ok || string(got) != `{"name":"Acme"}` {
				t.Fatalf("Get = %q, %v, %v", got, ok, err)
			}

			clock.now = clock.now.Add(59 * time.Minute)
			if _, ok, _ := c.Get(ctx, key); !ok {
				t.Fatal("entry expired early")
			}

			clock.now = clock.now.Add(time.Minute)
			if _, ok, _ := c.Get(ctx, key); ok {
				t.Fatal("entry served after ttl")
			}
			clock.now = clock.now.Add(-time.Hour)
		})
	}
}

func TestCacheOverwrite(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for name, c := range newCaches(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = c.Set(ctx, "k", []byte("one"), time.Minute)
			_ = c.Set(ctx, "k", []byte("two"), time.Minute)
			got, ok, err := c.Get(ctx, "k")
			if err != nil || !ok || string(got) != "two" {
				t.Fatalf("Get = %q, %v, %v", got, ok, err)
			}
		})
	}
}

func TestSQLitePurge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer c.Shutdown(context.Background())
	c.WithClock(clock.Now)

	ctx := context.Background()
	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "long", []byte("b"), 24*time.Hour)

	clock.now = clock.now.Add(time.Hour)
	n, err := c.Purge(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v; want 1", n, err)
	}
	if _, ok, _ := c.Get(ctx, "long"); !ok {
		t.Fatal("live entry purged")
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Set(ctx, "k", []byte("abc"), time.Minute)
	got, _, _ := m.Get(ctx, "k")
	got[0] = 'x'
	again, _, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated: %q", again)
	}
}
