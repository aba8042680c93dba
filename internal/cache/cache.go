// Package cache provides a concurrency-safe memo table for values
// that are expensive to derive and never change once derived.
package cache

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by [Cache.Get] for keys that have not been
// set.
var ErrNotFound = errors.New("not found in cache")

type entry[V any] struct {
	val V
	err error
}

// Cache maps keys to either a value or the error that deriving the
// value produced. The zero Cache is empty and ready to use.
type Cache[K comparable, V any] struct {
	m sync.Map
}

// Get returns the cached value for k. If k is cached as an error,
// Get returns that error. If k is not cached at all, Get returns
// [ErrNotFound].
func (c *Cache[K, V]) Get(k K) (V, error) {
	v, ok := c.m.Load(k)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	e := v.(entry[V])
	return e.val, e.err
}

// Set caches v for k. If k is already cached, the existing entry is
// kept.
func (c *Cache[K, V]) Set(k K, v V) {
	c.m.LoadOrStore(k, entry[V]{val: v})
}

// SetErr caches err for k. If k is already cached, the existing entry
// is kept.
func (c *Cache[K, V]) SetErr(k K, err error) {
	c.m.LoadOrStore(k, entry[V]{err: err})
}
