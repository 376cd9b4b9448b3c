package mapbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed on a
// coordinate grid. Points that round to the same cell share one lookup.
type CachedGeocoder struct {
	inner     domain.Geocoder
	cache     *lruCache
	precision int
	group     singleflight.Group
	metrics   *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Coordinates
// are rounded to precision decimal places to form the cache key and entries
// expire after ttl.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, ttl time.Duration, precision int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:     inner,
		cache:     newLRUCache(maxEntries, ttl, clockwork.NewRealClock()),
		precision: precision,
		metrics:   metrics,
	}
}

func (c *CachedGeocoder) CountryCode(ctx context.Context, lat, lon float64) (string, error) {
	key := gridKey(lat, lon, c.precision)
	if code, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return code, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	// The lookup is shared by every caller waiting on key, so it runs detached
	// from the cancellation of whichever caller started it.
	ch := c.group.DoChan(key, func() (any, error) {
		code, err := c.inner.CountryCode(context.WithoutCancel(ctx), lat, lon)
		if err != nil {
			return "", err
		}
		// Only cache resolved codes so transient empty responses can be retried.
		if code != "" {
			c.cache.put(key, code)
		}
		return code, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func gridKey(lat, lon float64, precision int) string {
	return fmt.Sprintf("%.*f,%.*f", precision, lat, precision, lon)
}

// lruCache is a thread-safe LRU cache of country codes with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   string
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) remove(e *entry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
