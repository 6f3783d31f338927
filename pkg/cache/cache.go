package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// DefaultCapacity bounds the in-memory cache when no capacity is configured.
const DefaultCapacity = 4096

// ResultCache stores verification results by fingerprint. On a hit the
// returned result's timestamp is refreshed to now; every other field is
// identical to the stored value.
type ResultCache interface {
	Get(ctx context.Context, key string) (*contracts.VerificationResult, bool, error)
	Put(ctx context.Context, key string, result *contracts.VerificationResult) error
	Len(ctx context.Context) (int, error)
}

// Snapshotter is implemented by caches that can enumerate their contents,
// used by the statistics fallback when no result log is configured.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]contracts.VerificationResult, error)
}

// MemoryCache is a capacity-bounded LRU over fingerprints. Results for the
// same fingerprint are value-identical by construction, so eviction and
// re-computation never change an observable verdict.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	clock    func() time.Time
}

type memoryEntry struct {
	key    string
	result *contracts.VerificationResult
}

// NewMemoryCache creates an LRU cache. capacity <= 0 selects DefaultCapacity.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		clock:    time.Now,
	}
}

// WithClock overrides the clock for testing.
func (c *MemoryCache) WithClock(clock func() time.Time) *MemoryCache {
	c.clock = clock
	return c
}

// Get returns a copy of the stored result with its timestamp refreshed.
func (c *MemoryCache) Get(ctx context.Context, key string) (*contracts.VerificationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)

	entry := el.Value.(*memoryEntry)
	entry.result.Timestamp = c.clock()

	return entry.result.Clone(), true, nil
}

// Put stores a copy of the result, evicting the least recently used entry
// when the cache is at capacity.
func (c *MemoryCache) Put(ctx context.Context, key string, result *contracts.VerificationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		// Idempotent overwrite; results per fingerprint are value-identical.
		el.Value.(*memoryEntry).result = result.Clone()
		c.order.MoveToFront(el)
		return nil
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryEntry).key)
	}

	c.entries[key] = c.order.PushFront(&memoryEntry{key: key, result: result.Clone()})
	return nil
}

// Len reports the number of cached fingerprints.
func (c *MemoryCache) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), nil
}

// Snapshot returns copies of all cached results.
func (c *MemoryCache) Snapshot(ctx context.Context) ([]contracts.VerificationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]contracts.VerificationResult, 0, len(c.entries))
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*memoryEntry).result.Clone())
	}
	return out, nil
}
