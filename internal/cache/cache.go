// Package cache implements the content-hash keyed Content Cache
// (spec.md §4.A): memoized analysis results deduplicated by content, not
// path, with versioned invalidation and LRU+TTL eviction. Grounded on the
// teacher's embedded_store.go pattern of a thin typed wrapper over a
// pluggable persistence backend, generalized here to a generic Cache[T]
// over any JSON-serializable analysis result.
package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/logging"
)

// EvictReason names why an entry was removed, surfaced to OnEvict.
type EvictReason string

const (
	EvictTTL     EvictReason = "ttl"
	EvictLRU     EvictReason = "lru"
	EvictVersion EvictReason = "version"
	EvictManual  EvictReason = "manual"
)

// Record is the persisted form of one cache entry; Backend implementations
// store and retrieve these without knowledge of T.
type Record struct {
	Hash            string
	AnalysisVersion string
	Value           []byte
	SizeBytes       int64
	CreatedAt       time.Time
	LastAccessed    time.Time
	AccessCount     int64
}

// Backend persists cache records. internal/store provides a SQL-backed
// implementation over the durable store's cache table; InMemoryBackend
// below fakes it for tests and standalone use.
type Backend interface {
	Load(hash string) (*Record, bool, error)
	Store(hash string, rec *Record) error
	Delete(hash string) error
	All() ([]*Record, error)
}

// Stats reports the cache's process-local counters (spec.md §4.A —
// "stats counters are process-local, not persisted across restart").
type Stats struct {
	Entries        int
	Hits           int64
	Misses         int64
	HitRate        float64
	TotalSize      int64
	TTLExpirations int64
	StaleEntries   int64
}

// OnEvictFunc is invoked once per evicted entry.
type OnEvictFunc func(key string, reason EvictReason)

// Cache is a content-hash keyed store of analysis results of type T.
type Cache[T any] struct {
	mu              sync.Mutex
	backend         Backend
	analysisVersion string
	maxEntries      int
	maxSizeBytes    int64
	ttl             time.Duration
	onEvict         OnEvictFunc

	hits, misses, ttlExpirations, staleEntries int64
}

// Options configures a new Cache.
type Options struct {
	AnalysisVersion string
	MaxEntries      int
	MaxSizeBytes    int64
	TTL             time.Duration
	OnEvict         OnEvictFunc
}

// New constructs a Cache over backend with the given options.
func New[T any](backend Backend, opts Options) *Cache[T] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10000
	}
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = 100 * 1024 * 1024
	}
	return &Cache[T]{
		backend:         backend,
		analysisVersion: opts.AnalysisVersion,
		maxEntries:      opts.MaxEntries,
		maxSizeBytes:    opts.MaxSizeBytes,
		ttl:             opts.TTL,
		onEvict:         opts.OnEvict,
	}
}

// Get returns the deserialized value for hash. The second return is false
// on miss, TTL expiry, version mismatch, or corrupt payload — all treated
// identically per spec.md §4.A.
func (c *Cache[T]) Get(hash string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok, err := c.backend.Load(hash)
	if err != nil || !ok {
		c.misses++
		return zero, false
	}
	if rec.AnalysisVersion != c.analysisVersion {
		c.misses++
		return zero, false
	}
	if c.ttl > 0 && time.Since(rec.CreatedAt) > c.ttl {
		c.ttlExpirations++
		c.misses++
		_ = c.backend.Delete(hash)
		c.notifyEvict(hash, EvictTTL)
		return zero, false
	}

	var val T
	if err := json.Unmarshal(rec.Value, &val); err != nil {
		// Corrupt entry: treat as miss, delete in place.
		c.misses++
		_ = c.backend.Delete(hash)
		return zero, false
	}

	rec.AccessCount++
	rec.LastAccessed = time.Now()
	_ = c.backend.Store(hash, rec)
	c.hits++
	return val, true
}

// Set stores value under hash, overwriting any existing entry. Size,
// created-at, and the access counter are reset on overwrite.
func (c *Cache[T]) Set(hash string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	rec := &Record{
		Hash:            hash,
		AnalysisVersion: c.analysisVersion,
		Value:           data,
		SizeBytes:       int64(len(data)),
		CreatedAt:       now,
		LastAccessed:    now,
		AccessCount:     0,
	}
	if err := c.backend.Store(hash, rec); err != nil {
		return err
	}
	c.evictIfNeeded()
	return nil
}

// Has reports presence without touching access stats.
func (c *Cache[T]) Has(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok, err := c.backend.Load(hash)
	if err != nil || !ok {
		return false
	}
	if rec.AnalysisVersion != c.analysisVersion {
		return false
	}
	if c.ttl > 0 && time.Since(rec.CreatedAt) > c.ttl {
		return false
	}
	var probe json.RawMessage
	return json.Unmarshal(rec.Value, &probe) == nil
}

// InvalidateByVersion deletes all entries stamped with analysisVersion v
// and returns the count removed.
func (c *Cache[T]) InvalidateByVersion(v string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	all, err := c.backend.All()
	if err != nil {
		return 0
	}
	count := 0
	for _, rec := range all {
		if rec.AnalysisVersion == v {
			_ = c.backend.Delete(rec.Hash)
			c.notifyEvict(rec.Hash, EvictVersion)
			count++
		}
	}
	return count
}

// InvalidateStale deletes entries older than the configured TTL.
func (c *Cache[T]) InvalidateStale() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	all, err := c.backend.All()
	if err != nil {
		return 0
	}
	count := 0
	for _, rec := range all {
		if time.Since(rec.CreatedAt) > c.ttl {
			_ = c.backend.Delete(rec.Hash)
			c.ttlExpirations++
			c.staleEntries++
			c.notifyEvict(rec.Hash, EvictTTL)
			count++
		}
	}
	return count
}

// Clear removes every entry and returns the count removed.
func (c *Cache[T]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	all, err := c.backend.All()
	if err != nil {
		return 0
	}
	for _, rec := range all {
		_ = c.backend.Delete(rec.Hash)
		c.notifyEvict(rec.Hash, EvictManual)
	}
	return len(all)
}

// GetStats returns the process-local cache counters.
func (c *Cache[T]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	all, _ := c.backend.All()
	var totalSize int64
	for _, rec := range all {
		totalSize += rec.SizeBytes
	}
	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Entries:        len(all),
		Hits:           c.hits,
		Misses:         c.misses,
		HitRate:        hitRate,
		TotalSize:      totalSize,
		TTLExpirations: c.ttlExpirations,
		StaleEntries:   c.staleEntries,
	}
}

// evictIfNeeded enforces the soft caps on entry count and byte size,
// evicting the oldest-accessed 15% by last-accessed time when exceeded.
// Caller must hold c.mu.
func (c *Cache[T]) evictIfNeeded() {
	all, err := c.backend.All()
	if err != nil {
		return
	}
	var totalSize int64
	for _, rec := range all {
		totalSize += rec.SizeBytes
	}
	overEntries := len(all) > c.maxEntries
	overSize := totalSize > c.maxSizeBytes
	if !overEntries && !overSize {
		return
	}

	sortByLastAccessed(all)
	evictCount := (len(all) * 15) / 100
	if evictCount < 1 {
		evictCount = 1
	}
	if evictCount > len(all) {
		evictCount = len(all)
	}
	for i := 0; i < evictCount; i++ {
		_ = c.backend.Delete(all[i].Hash)
		c.notifyEvict(all[i].Hash, EvictLRU)
	}
	logging.Get(logging.CategoryCache).Debug("evicted %d entries (entries=%d size=%d)", evictCount, len(all), totalSize)
}

func sortByLastAccessed(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].LastAccessed.Before(recs[j].LastAccessed)
	})
}

func (c *Cache[T]) notifyEvict(key string, reason EvictReason) {
	if c.onEvict != nil {
		c.onEvict(key, reason)
	}
}
