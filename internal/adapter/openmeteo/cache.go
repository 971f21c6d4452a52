package openmeteo

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"cragcast/internal/modules/weather/types"
	"cragcast/internal/observability"
)

// Provider is what the weather service needs from Open-Meteo.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (types.Conditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error)
}

// CachedProvider wraps a Provider with an in-memory LRU cache of forecasts,
// keyed by the rounded location. Errors are never cached. Current readings pass
// straight through; the weather service reuses them via stored snapshots.
type CachedProvider struct {
	inner   Provider
	cache   *lruCache[[]types.ForecastEntry]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator holding at most maxEntries
// forecasts, each for ttl.
func NewCachedProvider(inner Provider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache[[]types.ForecastEntry](maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedProvider) Current(ctx context.Context, lat, lon float64) (types.Conditions, error) {
	return c.inner.Current(ctx, lat, lon)
}

func (c *CachedProvider) Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error) {
	key := types.LocationKey(lat, lon)
	if entries, ok := c.cache.get(key); ok {
		c.count("hit")
		return entries, nil
	}
	c.count("miss")

	entries, err := c.inner.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, entries)
	return entries, nil
}

// Purge drops every cached forecast.
func (c *CachedProvider) Purge() {
	c.cache.purge()
}

func (c *CachedProvider) count(result string) {
	if c.metrics != nil {
		c.metrics.WeatherCache.WithLabelValues("forecast", result).Inc()
	}
}

// lruCache is a thread-safe LRU cache whose entries also expire after ttl.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry[V]
	head    *entry[V] // most recently used
	tail    *entry[V] // least recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
	c.head = nil
	c.tail = nil
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
