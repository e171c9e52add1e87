package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.Get(context.Background(), "absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("got %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("got %v, want ErrCacheMiss after expiry", err)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("got %v, want ErrCacheMiss after delete", err)
	}

	// Deleting an absent key is fine.
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	for _, key := range []string{BookPagesKey(3), BookHTMLKey(3, 1), BookHTMLKey(3, 2), BookPagesKey(4)} {
		if err := c.Set(ctx, key, []byte("v"), 0); err != nil {
			t.Fatalf("Set %q: %v", key, err)
		}
	}

	if err := c.DeleteByPrefix(ctx, BookPrefix(3)); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	for _, key := range []string{BookPagesKey(3), BookHTMLKey(3, 1), BookHTMLKey(3, 2)} {
		if _, err := c.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("key %q survived prefix delete", key)
		}
	}
	if _, err := c.Get(ctx, BookPagesKey(4)); err != nil {
		t.Errorf("unrelated key was deleted: %v", err)
	}
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxEntries: 2})
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Cache is full of live entries: the write is dropped.
	if err := c.Set(ctx, "c", []byte("3"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "c"); !errors.Is(err, ErrCacheMiss) {
		t.Error("expected write beyond cap to be dropped")
	}

	// Overwriting an existing key always succeeds.
	if err := c.Set(ctx, "a", []byte("updated"), 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := c.Get(ctx, "a")
	if err != nil || string(got) != "updated" {
		t.Errorf("got %q, %v; want %q", got, err, "updated")
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewSimpleMemoryCache(time.Minute)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set on closed cache: got %v, want ErrCacheClosed", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get on closed cache: got %v, want ErrCacheClosed", err)
	}
	// Closing twice is fine.
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
