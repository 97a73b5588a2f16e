package cache_test

import (
	"testing"
	"time"

	"github.com/blackcnote/invest-api/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("balance:user-1", "150.00")
	val, ok := c.Get("balance:user-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "150.00" {
		t.Errorf("expected '150.00', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("plans:active", "[]")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("plans:active")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_InvalidateOnWrite(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("plans:active", "[plan-a]")
	c.Delete("plans:active")

	_, ok := c.Get("plans:active")
	if ok {
		t.Fatal("expected key to be invalidated")
	}
}
