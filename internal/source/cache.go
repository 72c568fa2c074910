package source

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/observability"
)

// ErrCountUnsupported is returned by CachedSource.Count when the wrapped
// source cannot count records.
var ErrCountUnsupported = errors.New("record source does not support counting")

// CachedSource wraps a RecordSource with an in-memory LRU cache whose entries
// expire after a TTL.
type CachedSource struct {
	inner   RecordSource
	records *lruCache[[]domain.RawRecord]
	counts  *lruCache[int]
	metrics *observability.Metrics
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

// WithCacheClock sets the clock used for entry expiry.
func WithCacheClock(c clockwork.Clock) CacheOption {
	return func(s *CachedSource) {
		s.records.clock = c
		s.counts.clock = c
	}
}

// NewCachedSource creates a cache decorator around a record source.
func NewCachedSource(inner RecordSource, maxEntries int, ttl time.Duration, metrics *observability.Metrics, opts ...CacheOption) *CachedSource {
	s := &CachedSource{
		inner:   inner,
		records: newLRUCache[[]domain.RawRecord](maxEntries, ttl),
		counts:  newLRUCache[int](maxEntries, ttl),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns cached records for the filter or delegates to the inner source.
// Failed fetches are not cached.
func (s *CachedSource) Fetch(ctx context.Context, filter Filter) ([]domain.RawRecord, error) {
	key := filter.key()
	if records, ok := s.records.get(key); ok {
		s.lookup(true)
		return slices.Clone(records), nil
	}
	s.lookup(false)

	records, err := s.inner.Fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.records.put(key, slices.Clone(records))
	return records, nil
}

// Count returns the cached count for the filter or delegates to the inner
// source when it implements Counter.
func (s *CachedSource) Count(ctx context.Context, filter Filter) (int, error) {
	counter, ok := s.inner.(Counter)
	if !ok {
		return 0, ErrCountUnsupported
	}

	filter.Limit = 0
	key := filter.key()
	if n, ok := s.counts.get(key); ok {
		s.lookup(true)
		return n, nil
	}
	s.lookup(false)

	n, err := counter.Count(ctx, filter)
	if err != nil {
		return 0, err
	}
	s.counts.put(key, n)
	return n, nil
}

func (s *CachedSource) lookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.SourceCache.WithLabelValues(result).Inc()
}

// lruCache is a simple thread-safe LRU cache with per-entry expiry.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
	prev    *entry[V]
	next    *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clockwork.NewRealClock(),
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
	if c.ttl > 0 && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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
