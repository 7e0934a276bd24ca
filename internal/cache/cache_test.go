package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*Helper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHelper(client, "test:"), mr
}

func TestHelper_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	h, mr := newTestHelper(t)

	var n int64
	if err := h.Get(ctx, "k", &n); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Get() on empty cache error = %v", err)
	}
	if err := h.Set(ctx, "k", int64(42), 0); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:k") {
		t.Error("prefix not applied")
	}
	if err := h.Get(ctx, "k", &n); err != nil || n != 42 {
		t.Fatalf("Get() = %d, %v", n, err)
	}
	if err := h.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("test:k") {
		t.Error("key survived Delete()")
	}
}

func TestHelper_Disabled(t *testing.T) {
	ctx := context.Background()
	h := NewHelper(nil, "x:")
	if h.Enabled() {
		t.Fatal("nil client reported enabled")
	}
	if err := h.Set(ctx, "k", 1, 0); err != nil {
		t.Errorf("Set() on disabled cache error = %v", err)
	}
	var v int
	if err := h.Get(ctx, "k", &v); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() on disabled cache error = %v", err)
	}
}

func TestContactCounts(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHelper(t)
	cc := NewContactCounts(h)

	loads := 0
	load := func() (int64, error) {
		loads++
		return 3, nil
	}

	for i := 0; i < 2; i++ {
		n, err := cc.Get(ctx, ScopeKey(false, 7), load)
		if err != nil || n != 3 {
			t.Fatalf("Get() = %d, %v", n, err)
		}
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}

	if err := cc.Invalidate(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := cc.Get(ctx, ScopeKey(false, 7), load); err != nil {
		t.Fatal(err)
	}
	if loads != 2 {
		t.Errorf("loader called %d times after invalidate, want 2", loads)
	}
}
