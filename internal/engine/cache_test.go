package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryCache_GetSet(t *testing.T) {
	cache := NewQueryCache(10, time.Minute)
	key := cache.GenerateKey("sql", "SELECT * FROM t")

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Set(key, QueryData{{"a": "1"}})
	got, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, QueryData{{"a": "1"}}, got)

	// Returned data is a copy
	got[0]["a"] = "2"
	again, _ := cache.Get(key)
	assert.Equal(t, "1", again[0]["a"])
}

func TestQueryCache_KeysAreNamespaced(t *testing.T) {
	cache := NewQueryCache(10, time.Minute)
	assert.NotEqual(t, cache.GenerateKey("sql", "x"), cache.GenerateKey("kql", "x"))
	assert.NotEqual(t, cache.GenerateKey("ab", "c"), cache.GenerateKey("a", "bc"))
	assert.Equal(t, cache.GenerateKey("sql", "x"), cache.GenerateKey("sql", "x"))
}

func TestQueryCache_Expiry(t *testing.T) {
	cache := NewQueryCache(10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	key := cache.GenerateKey("sql", "q")
	cache.Set(key, QueryData{})

	now = now.Add(30 * time.Second)
	_, ok := cache.Get(key)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = cache.Get(key)
	assert.False(t, ok)
}

func TestQueryCache_Eviction(t *testing.T) {
	cache := NewQueryCache(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	first := cache.GenerateKey("sql", "1")
	second := cache.GenerateKey("sql", "2")
	third := cache.GenerateKey("sql", "3")

	cache.Set(first, QueryData{})
	cache.Set(second, QueryData{})
	cache.Set(third, QueryData{})

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(first)
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = cache.Get(third)
	assert.True(t, ok)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestQueryCache_Disabled(t *testing.T) {
	cache := NewQueryCache(0, 0)
	key := cache.GenerateKey("sql", "q")
	cache.Set(key, QueryData{{"a": "1"}})
	_, ok := cache.Get(key)
	assert.False(t, ok)
}
