package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a typed in-process cache with TTL support. Instances register
// themselves by name so the admin page can report hit ratios.
type Cache[T any] struct {
	name  string
	inner *ristretto.Cache[string, T]
}

var (
	registryMu sync.Mutex
	registry   []statsSource
)

type statsSource interface {
	Name() string
	Stats() map[string]interface{}
}

// New builds a named cache. cost reports the approximate byte weight of a
// value; the cache holds ~64MB total.
func New[T any](name string, cost func(T) int64) (*Cache[T], error) {
	inner, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: 100_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
		Metrics:     true,
		Cost:        cost,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s cache: %w", name, err)
	}
	c := &Cache[T]{name: name, inner: inner}
	registryMu.Lock()
	registry = append(registry, c)
	registryMu.Unlock()
	return c, nil
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.inner.Get(key)
}

func (c *Cache[T]) Set(key string, value T) {
	c.inner.Set(key, value, 0)
	c.inner.Wait()
}

func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.inner.SetWithTTL(key, value, 0, ttl)
	c.inner.Wait()
}

func (c *Cache[T]) Delete(key string) {
	c.inner.Del(key)
}

func (c *Cache[T]) Clear() {
	c.inner.Clear()
}

func (c *Cache[T]) Name() string { return c.name }

// Stats reports ristretto metrics for the admin page.
func (c *Cache[T]) Stats() map[string]interface{} {
	m := c.inner.Metrics
	return map[string]interface{}{
		"hits":       m.Hits(),
		"misses":     m.Misses(),
		"hit_ratio":  fmt.Sprintf("%.2f", m.Ratio()),
		"keys_added": m.KeysAdded(),
		"cost_added": m.CostAdded(),
	}
}

// AllStats returns stats for every registered cache, keyed by name.
func AllStats() map[string]map[string]interface{} {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make(map[string]map[string]interface{}, len(registry))
	for _, c := range registry {
		out[c.Name()] = c.Stats()
	}
	return out
}
