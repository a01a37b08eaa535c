// Package store implements the Durable Store (spec.md §4.B): typed
// persistence over an embedded SQL engine in WAL mode, for files,
// functions, modules, edges, context packs, embeddings, the content
// cache, the evidence ledger, outcomes, and calibration reports. It does
// not expose raw SQL to the rest of the system. Grounded on the
// teacher's internal/store/local_core.go WAL/pragma setup sequence,
// adapted from mattn/go-sqlite3 to the pure-Go modernc.org/sqlite driver
// so the engine never needs cgo.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/logging"
)

// schema creates every table the store owns. Run once at open; CREATE
// TABLE IF NOT EXISTS makes it idempotent across restarts.
const schema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	durability TEXT NOT NULL,
	checksum TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	last_modified INTEGER NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS functions (
	target_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	name TEXT NOT NULL,
	signature TEXT,
	start_line INTEGER,
	end_line INTEGER,
	purpose TEXT,
	confidence REAL NOT NULL DEFAULT 0,
	access_count INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0,
	last_accessed INTEGER,
	FOREIGN KEY (file_path) REFERENCES files(path)
);

CREATE TABLE IF NOT EXISTS modules (
	path TEXT PRIMARY KEY,
	purpose TEXT,
	exports TEXT,
	confidence REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS module_dependencies (
	module_path TEXT NOT NULL,
	dependency_path TEXT NOT NULL,
	package_name TEXT NOT NULL,
	PRIMARY KEY (module_path, dependency_path, package_name)
);

CREATE TABLE IF NOT EXISTS edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	edge_type TEXT NOT NULL,
	source_file TEXT,
	weight REAL NOT NULL DEFAULT 1.0,
	confidence REAL NOT NULL DEFAULT 0,
	computed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);

CREATE TABLE IF NOT EXISTS packs (
	pack_id TEXT PRIMARY KEY,
	pack_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	summary TEXT,
	key_facts TEXT,
	code_snippets TEXT,
	related_files TEXT,
	confidence REAL NOT NULL DEFAULT 0,
	access_count INTEGER NOT NULL DEFAULT 0,
	last_outcome TEXT NOT NULL DEFAULT 'unknown',
	success_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	invalidation_triggers TEXT
);
CREATE INDEX IF NOT EXISTS idx_packs_target ON packs(target_id);

CREATE TABLE IF NOT EXISTS embeddings (
	file_path TEXT NOT NULL,
	aspect TEXT NOT NULL,
	model_id TEXT NOT NULL,
	vector BLOB NOT NULL,
	input TEXT,
	last_updated INTEGER NOT NULL,
	PRIMARY KEY (file_path, aspect, model_id)
);

CREATE TABLE IF NOT EXISTS cache_entries (
	hash TEXT PRIMARY KEY,
	analysis_version TEXT NOT NULL,
	value BLOB NOT NULL,
	size_bytes INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	last_accessed INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evidence_ledger (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	payload TEXT,
	source TEXT,
	method TEXT,
	timestamp INTEGER NOT NULL,
	related_entries TEXT,
	confidence_kind TEXT,
	confidence_json TEXT
);

CREATE TABLE IF NOT EXISTS outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pack_id TEXT NOT NULL,
	success INTEGER NOT NULL,
	reason TEXT,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_pack ON outcomes(pack_id);

CREATE TABLE IF NOT EXISTS calibration_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	schema_version INTEGER NOT NULL,
	generated_at INTEGER NOT NULL,
	report_json TEXT NOT NULL
);
`

// Store wraps a WAL-mode SQLite database with the typed operations the
// rest of the engine is allowed to use.
type Store struct {
	db         *sql.DB
	maxRetries int
}

// Options configures Open.
type Options struct {
	MaxRetries int // default 3, per spec.md §4.B
}

// Open creates (if needed) and opens the store database at path, setting
// WAL journal mode and a busy timeout (spec.md §4.B). The pool holds a
// single connection, so statements and transactions run one at a time.
func Open(path string, opts Options) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.Get(logging.CategoryStore).Warn("pragma failed: %s: %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	logging.Get(logging.CategoryStore).Info("store opened at %s (maxRetries=%d)", path, maxRetries)
	return &Store{db: db, maxRetries: maxRetries}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy")
}

// Resolution is a transaction wrapper's per-attempt resolver decision.
type Resolution string

const (
	ResolveRetry Resolution = "retry"
	ResolveMerge Resolution = "merge"
	ResolveFail  Resolution = "fail"
)

// Resolver decides what to do after a transaction attempt fails with err.
type Resolver func(attempt int, err error) Resolution

// defaultResolver retries transient errors up to maxRetries, then fails.
func defaultResolver(maxRetries int) Resolver {
	return func(attempt int, err error) Resolution {
		if isTransient(err) && attempt < maxRetries {
			return ResolveRetry
		}
		return ResolveFail
	}
}

// ErrMergeUnimplemented is returned when a Resolver requests "merge";
// merge conflict resolution is reserved and currently unimplemented
// (spec.md §4.B).
var ErrMergeUnimplemented = apperrors.New(apperrors.CodeTransactionMergeUnimplemented, "merge conflict resolution is not implemented")

// WithTransaction runs fn inside a transaction, composing retries per the
// optimistic-concurrency contract: snapshot read isolation, retry on
// conflict (default maxRetries=3), then surface transaction_conflict.
func (s *Store) WithTransaction(ctx context.Context, resolver Resolver, fn func(tx *sql.Tx) error) error {
	if resolver == nil {
		resolver = defaultResolver(s.maxRetries)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		err = fn(tx)
		if err == nil {
			if commitErr := tx.Commit(); commitErr != nil {
				err = commitErr
			} else {
				return nil
			}
		} else {
			_ = tx.Rollback()
		}

		lastErr = err
		switch resolver(attempt, err) {
		case ResolveRetry:
			time.Sleep(backoffDelay(attempt))
			continue
		case ResolveMerge:
			return ErrMergeUnimplemented
		default:
			return apperrors.New(apperrors.CodeTransactionConflict, lastErr.Error())
		}
	}
}

func backoffDelay(attempt int) time.Duration {
	base := 10 * time.Millisecond
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	if delay > 200*time.Millisecond {
		delay = 200 * time.Millisecond
	}
	return delay
}

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("not found")
