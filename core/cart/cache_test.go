package cart

import "testing"

func TestCountCache(t *testing.T) {
	c := NewCountCache(8)

	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected a miss on a fresh cache")
	}

	c.Set("u1", 3)
	if n, ok := c.Get("u1"); !ok || n != 3 {
		t.Fatalf("got (%d, %v), want (3, true)", n, ok)
	}

	c.Invalidate("u1")
	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected a miss after invalidation")
	}

	// Invalidating an absent entry is a no-op.
	c.Invalidate("u1")
}

func TestCountCacheBounded(t *testing.T) {
	c := NewCountCache(2)

	c.Set("u1", 1)
	c.Set("u2", 2)
	c.Set("u3", 3)

	hits := 0
	for _, id := range []string{"u1", "u2", "u3"} {
		if _, ok := c.Get(id); ok {
			hits++
		}
	}
	if hits != 2 {
		t.Fatalf("got %d cached entries, want 2 after eviction", hits)
	}

	// The latest write always survives.
	if n, ok := c.Get("u3"); !ok || n != 3 {
		t.Fatalf("got (%d, %v), want (3, true)", n, ok)
	}
}
