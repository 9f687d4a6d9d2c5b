package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// cache is a concurrency-safe entity cache with request coalescing: when
// several goroutines miss on the same key at once, only one loader call
// goes to the upstream and all of them share its result.
type cache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	sf    singleflight.Group
}

func newCache[T any]() *cache[T] {
	return &cache[T]{items: make(map[string]T)}
}

func (c *cache[T]) get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *cache[T]) put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// getOrLoad returns the cached value or runs loader exactly once per key
// across concurrent callers.
func (c *cache[T]) getOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok := c.get(key); ok {
			return v, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		c.put(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *cache[T]) values() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	return out
}

func (c *cache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *cache[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]T)
}
