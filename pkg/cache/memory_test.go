package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := payload{Symbol: "AAPL", Score: 0.42}
	if err := mc.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	if err := mc.Get(ctx, "k", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out payload
	if err := mc.Get(context.Background(), "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", payload{}, time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out payload
	if err := mc.Get(ctx, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss after expiry, got %v", err)
	}
	if ok, _ := mc.Exists(ctx, "k"); ok {
		t.Fatal("expired key still reported as existing")
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	mc := NewMemoryCache(WithMaxEntries(2))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := mc.Set(ctx, "b", 2, time.Minute); err != nil {
		t.Fatalf("set b: %v", err)
	}
	// touch "a" so "b" is the eviction candidate
	var n int
	if err := mc.Get(ctx, "a", &n); err != nil {
		t.Fatalf("get a: %v", err)
	}
	if err := mc.Set(ctx, "c", 3, time.Minute); err != nil {
		t.Fatalf("set c: %v", err)
	}

	if err := mc.Get(ctx, "a", &n); err != nil {
		t.Fatalf("a evicted: %v", err)
	}
	if err := mc.Get(ctx, "b", &n); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want b evicted, got %v", err)
	}
}
