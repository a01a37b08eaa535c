package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// UpsertFile inserts or replaces a file entity row.
func (s *Store) UpsertFile(ctx context.Context, f types.FileEntity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, category, durability, checksum, size_bytes, last_modified, version)
		VALUES (?, ?, 'stable', ?, 0, ?, 1)
		ON CONFLICT(path) DO UPDATE SET
			category = excluded.category,
			checksum = excluded.checksum,
			last_modified = excluded.last_modified,
			version = files.version + 1
	`, f.Path, string(f.Category), f.Checksum, f.LastModified.UnixMilli())
	return err
}

// GetFile looks up a file entity by path.
func (s *Store) GetFile(ctx context.Context, path string) (types.FileEntity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, category, checksum, last_modified FROM files WHERE path = ?`, path)
	var f types.FileEntity
	var category string
	var lastModMillis int64
	if err := row.Scan(&f.Path, &category, &f.Checksum, &lastModMillis); err != nil {
		if err == sql.ErrNoRows {
			return types.FileEntity{}, ErrNotFound
		}
		return types.FileEntity{}, err
	}
	f.Category = types.FileCategory(category)
	f.LastModified = time.UnixMilli(lastModMillis)
	return f, nil
}

// ListFiles returns every file entity in path order.
func (s *Store) ListFiles(ctx context.Context) ([]types.FileEntity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, category, checksum, last_modified FROM files ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.FileEntity
	for rows.Next() {
		var f types.FileEntity
		var category string
		var lastModMillis int64
		if err := rows.Scan(&f.Path, &category, &f.Checksum, &lastModMillis); err != nil {
			return nil, err
		}
		f.Category = types.FileCategory(category)
		f.LastModified = time.UnixMilli(lastModMillis)
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFunction inserts or replaces a function entity row, keyed by its
// canonical target ID ("{filePath}:{name}", invariant 1).
func (s *Store) UpsertFunction(ctx context.Context, fn types.FunctionEntity) error {
	targetID := fn.TargetID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO functions (target_id, file_path, name, signature, start_line, end_line, purpose, confidence, access_count, success_count, failure_count, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(target_id) DO UPDATE SET
			signature = excluded.signature,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			purpose = excluded.purpose,
			confidence = excluded.confidence
	`, targetID, fn.FilePath, fn.Name, fn.Signature, fn.StartLine, fn.EndLine, fn.Purpose, fn.Confidence,
		fn.AccessCount, fn.SuccessCount, fn.FailureCount, fn.LastAccessed.UnixMilli())
	return err
}

// GetFunction looks up a function entity by its canonical target ID.
func (s *Store) GetFunction(ctx context.Context, targetID string) (types.FunctionEntity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT target_id, file_path, name, signature, start_line, end_line, purpose, confidence,
		       access_count, success_count, failure_count, last_accessed
		FROM functions WHERE target_id = ?`, targetID)

	var fn types.FunctionEntity
	var id string
	var lastAccessedMillis int64
	if err := row.Scan(&id, &fn.FilePath, &fn.Name, &fn.Signature, &fn.StartLine, &fn.EndLine, &fn.Purpose,
		&fn.Confidence, &fn.AccessCount, &fn.SuccessCount, &fn.FailureCount, &lastAccessedMillis); err != nil {
		if err == sql.ErrNoRows {
			return types.FunctionEntity{}, ErrNotFound
		}
		return types.FunctionEntity{}, err
	}
	fn.ID = id
	fn.LastAccessed = time.UnixMilli(lastAccessedMillis)
	return fn, nil
}

// RecordFunctionOutcome bumps a function's access/success/failure counters
// (spec.md §4.F feedback loop integration).
func (s *Store) RecordFunctionOutcome(ctx context.Context, targetID string, success bool, at time.Time) error {
	col := "failure_count"
	if success {
		col = "success_count"
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE functions SET access_count = access_count + 1, `+col+` = `+col+` + 1, last_accessed = ?
		WHERE target_id = ?`, at.UnixMilli(), targetID)
	return err
}

// UpsertModule inserts or replaces a module entity and its dependency edges.
func (s *Store) UpsertModule(ctx context.Context, m types.ModuleEntity) error {
	return s.WithTransaction(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO modules (path, purpose, exports, confidence)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET purpose = excluded.purpose, exports = excluded.exports, confidence = excluded.confidence
		`, m.Path, m.Purpose, strings.Join(m.Exports, ","), m.Confidence)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM module_dependencies WHERE module_path = ?`, m.Path); err != nil {
			return err
		}
		for _, dep := range m.Dependencies {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO module_dependencies (module_path, dependency_path, package_name)
				VALUES (?, ?, ?)`, m.Path, dep.Path, dep.Package); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetModule looks up a module entity and its dependencies by path.
func (s *Store) GetModule(ctx context.Context, path string) (types.ModuleEntity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, purpose, exports, confidence FROM modules WHERE path = ?`, path)
	var m types.ModuleEntity
	var exports string
	if err := row.Scan(&m.Path, &m.Purpose, &exports, &m.Confidence); err != nil {
		if err == sql.ErrNoRows {
			return types.ModuleEntity{}, ErrNotFound
		}
		return types.ModuleEntity{}, err
	}
	if exports != "" {
		m.Exports = strings.Split(exports, ",")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT dependency_path, package_name FROM module_dependencies WHERE module_path = ?`, path)
	if err != nil {
		return types.ModuleEntity{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var dep types.ModuleDependency
		if err := rows.Scan(&dep.Path, &dep.Package); err != nil {
			return types.ModuleEntity{}, err
		}
		m.Dependencies = append(m.Dependencies, dep)
	}
	return m, rows.Err()
}

// entityExists reports whether id names a known file, function, or module,
// used to validate edge endpoints before insertion.
func (s *Store) entityExists(ctx context.Context, id string) (bool, error) {
	for _, q := range []string{
		`SELECT 1 FROM files WHERE path = ?`,
		`SELECT 1 FROM functions WHERE target_id = ?`,
		`SELECT 1 FROM modules WHERE path = ?`,
	} {
		var one int
		err := s.db.QueryRowContext(ctx, q, id).Scan(&one)
		if err == nil {
			return true, nil
		}
		if err != sql.ErrNoRows {
			return false, err
		}
	}
	return false, nil
}

// ErrUnknownEndpoint is returned by AddEdge when an endpoint names no
// known entity (spec.md §4.B edge-endpoint validation).
var ErrUnknownEndpoint = sql.ErrNoRows

// AddEdge inserts a directed, typed relationship, validating both
// endpoints resolve to a known entity first.
func (s *Store) AddEdge(ctx context.Context, e types.Edge) error {
	fromOK, err := s.entityExists(ctx, e.FromID)
	if err != nil {
		return err
	}
	toOK, err := s.entityExists(ctx, e.ToID)
	if err != nil {
		return err
	}
	if !fromOK || !toOK {
		return ErrUnknownEndpoint
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, edge_type, source_file, weight, confidence, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.FromID, e.ToID, string(e.EdgeType), e.SourceFile, e.Weight, e.Confidence, e.ComputedAt.UnixMilli())
	return err
}

// EdgesFrom returns every outgoing edge from id.
func (s *Store) EdgesFrom(ctx context.Context, id string) ([]types.Edge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, edge_type, source_file, weight, confidence, computed_at FROM edges WHERE from_id = ?`, id)
}

// EdgesTo returns every incoming edge to id.
func (s *Store) EdgesTo(ctx context.Context, id string) ([]types.Edge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, edge_type, source_file, weight, confidence, computed_at FROM edges WHERE to_id = ?`, id)
}

// AllEdges returns every edge, used to build the in-memory Adjacency
// graph for centrality computation (internal/graph).
func (s *Store) AllEdges(ctx context.Context) ([]types.Edge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, edge_type, source_file, weight, confidence, computed_at FROM edges`)
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...interface{}) ([]types.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Edge
	for rows.Next() {
		var e types.Edge
		var edgeType string
		var computedAtMillis int64
		if err := rows.Scan(&e.FromID, &e.ToID, &edgeType, &e.SourceFile, &e.Weight, &e.Confidence, &computedAtMillis); err != nil {
			return nil, err
		}
		e.EdgeType = types.EdgeType(edgeType)
		e.ComputedAt = time.UnixMilli(computedAtMillis)
		out = append(out, e)
	}
	return out, rows.Err()
}
