// Package cache holds remote models that are read far more often than they
// change. Entries never expire by age. Each entry counts reads and, once the
// count reaches a jittered threshold, is reloaded in the background while the
// current value keeps being served. The jitter keeps entries loaded at the
// same moment from all refreshing on the same read.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is wrapped by loaders when the remote side has no such key.
var ErrNotFound = errors.New("not found")

// Loader fetches the authoritative value for key.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

type Config struct {
	// AccessThreshold is the nominal number of reads between refreshes.
	AccessThreshold int
	// Jitter widens the threshold to AccessThreshold ± Jitter, drawn per read.
	Jitter int
	// RefreshTimeout bounds a background reload.
	RefreshTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		AccessThreshold: 100,
		Jitter:          10,
		RefreshTimeout:  30 * time.Second,
	}
}

type Option func(*options)

type options struct {
	intN func(n int) int
}

// WithRand replaces the jitter source; intN must return a value in [0, n).
func WithRand(intN func(n int) int) Option {
	return func(o *options) { o.intN = intN }
}

type entry[V any] struct {
	value      V
	access     int
	refreshing bool
}

// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	name   string
	load   Loader[K, V]
	config Config
	intN   func(n int) int

	mu      sync.Mutex
	entries map[K]*entry[V]
	group   singleflight.Group
	wg      sync.WaitGroup
}

// New creates a cache. name only appears in logs.
func New[K comparable, V any](name string, load Loader[K, V], config Config, opts ...Option) *Cache[K, V] {
	def := DefaultConfig()
	if config.AccessThreshold <= 0 {
		config.AccessThreshold = def.AccessThreshold
	}
	if config.Jitter < 0 {
		config.Jitter = 0
	}
	if config.Jitter >= config.AccessThreshold {
		config.Jitter = config.AccessThreshold - 1
	}
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = def.RefreshTimeout
	}

	o := options{intN: rand.IntN}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[K, V]{
		name:    name,
		load:    load,
		config:  config,
		intN:    o.intN,
		entries: make(map[K]*entry[V]),
	}
}

// Get returns the cached value for key, loading it on first use. Concurrent
// first reads of one key share a single load. A failed load is not cached.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.access++
		if e.access >= c.threshold() && !e.refreshing {
			e.access = 0
			e.refreshing = true
			c.wg.Add(1)
			go c.refresh(key)
		}
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(c.flightKey(key), func() (any, error) {
		// Shared by every waiter, so it must outlive any one caller.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.RefreshTimeout)
		defer cancel()
		v, err := c.load(lctx, key)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.entries[key] = &entry[V]{value: v, access: 0}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, fmt.Errorf("%s cache: load %v: %w", c.name, key, res.Err)
		}
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			e.access++
		}
		c.mu.Unlock()
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Put stores a value obtained elsewhere, resetting its read count.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[V]{value: value}
}

// Peek returns the cached value without loading or counting a read.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Invalidate drops key so the next Get reloads it.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until in-flight background refreshes finish.
func (c *Cache[K, V]) Wait() {
	c.wg.Wait()
}

// threshold draws AccessThreshold + uniform(-Jitter..+Jitter).
func (c *Cache[K, V]) threshold() int {
	if c.config.Jitter == 0 {
		return c.config.AccessThreshold
	}
	return c.config.AccessThreshold - c.config.Jitter + c.intN(2*c.config.Jitter+1)
}

func (c *Cache[K, V]) refresh(key K) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.RefreshTimeout)
	defer cancel()

	v, err := c.load(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refreshing = false
	if err != nil {
		log.Warn().
			Err(err).
			Str("cache", c.name).
			Interface("key", key).
			Msg("background refresh failed, keeping cached value")
		return
	}
	e.value = v
	log.Debug().Str("cache", c.name).Interface("key", key).Msg("refreshed cache entry")
}

func (c *Cache[K, V]) flightKey(key K) string {
	return fmt.Sprint(key)
}
