package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/cache"
)

// CacheBackend adapts Store's cache_entries table to internal/cache's
// Backend interface, so the content-addressed cache (component A) can be
// backed by durable storage instead of memory_backend's in-process map.
type CacheBackend struct {
	store *Store
	ctx   context.Context
}

// NewCacheBackend returns a cache.Backend backed by s. ctx bounds every
// underlying query; pass context.Background() for a long-lived backend.
func NewCacheBackend(s *Store, ctx context.Context) *CacheBackend {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CacheBackend{store: s, ctx: ctx}
}

func (b *CacheBackend) Load(hash string) (*cache.Record, bool, error) {
	row := b.store.db.QueryRowContext(b.ctx, `
		SELECT hash, analysis_version, value, size_bytes, created_at, last_accessed, access_count
		FROM cache_entries WHERE hash = ?`, hash)
	rec, err := scanCacheRow(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (b *CacheBackend) Store(hash string, rec *cache.Record) error {
	_, err := b.store.db.ExecContext(b.ctx, `
		INSERT INTO cache_entries (hash, analysis_version, value, size_bytes, created_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			analysis_version = excluded.analysis_version,
			value = excluded.value,
			size_bytes = excluded.size_bytes,
			last_accessed = excluded.last_accessed,
			access_count = excluded.access_count
	`, hash, rec.AnalysisVersion, rec.Value, rec.SizeBytes, rec.CreatedAt.UnixMilli(), rec.LastAccessed.UnixMilli(), rec.AccessCount)
	return err
}

func (b *CacheBackend) Delete(hash string) error {
	_, err := b.store.db.ExecContext(b.ctx, `DELETE FROM cache_entries WHERE hash = ?`, hash)
	return err
}

func (b *CacheBackend) All() ([]*cache.Record, error) {
	rows, err := b.store.db.QueryContext(b.ctx, `
		SELECT hash, analysis_version, value, size_bytes, created_at, last_accessed, access_count FROM cache_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*cache.Record
	for rows.Next() {
		rec, err := scanCacheRowFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanCacheRow(row *sql.Row) (*cache.Record, error) {
	return scanCacheRowFromRows(row)
}

func scanCacheRowFromRows(row rowScanner) (*cache.Record, error) {
	rec := &cache.Record{}
	var createdAtMillis, lastAccessedMillis int64
	if err := row.Scan(&rec.Hash, &rec.AnalysisVersion, &rec.Value, &rec.SizeBytes, &createdAtMillis, &lastAccessedMillis, &rec.AccessCount); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAtMillis)
	rec.LastAccessed = time.UnixMilli(lastAccessedMillis)
	return rec, nil
}
