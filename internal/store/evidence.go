package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// AppendEvidence durably persists one evidence ledger entry (spec.md
// §4.J). internal/epistemic.Ledger keeps the authoritative in-process
// copy for a running session; this table lets a restarted engine replay
// the append-only trail rather than start epistemically blank.
func (s *Store) AppendEvidence(ctx context.Context, e types.EvidenceEntry) (types.EvidenceEntry, error) {
	related, err := json.Marshal(e.RelatedEntries)
	if err != nil {
		return types.EvidenceEntry{}, err
	}
	confidence, err := json.Marshal(e.Confidence)
	if err != nil {
		return types.EvidenceEntry{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence_ledger (kind, payload, source, method, timestamp, related_entries, confidence_kind, confidence_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(e.Kind), e.Payload, e.Provenance.Source, e.Provenance.Method, e.Timestamp.UnixMilli(), string(related), string(e.Confidence.Kind), string(confidence))
	if err != nil {
		return types.EvidenceEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.EvidenceEntry{}, err
	}
	e.ID = id
	return e, nil
}

// QueryEvidence returns every persisted entry whose kind is in kinds (or
// all entries, if kinds is empty), newest-first.
func (s *Store) QueryEvidence(ctx context.Context, kinds []types.EvidenceKind) ([]types.EvidenceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, source, method, timestamp, related_entries, confidence_json
		FROM evidence_ledger ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allowed := make(map[types.EvidenceKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	var out []types.EvidenceEntry
	for rows.Next() {
		e, err := scanEvidenceRow(rows)
		if err != nil {
			return nil, err
		}
		if len(allowed) > 0 && !allowed[e.Kind] {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvidenceRow(row rowScanner) (types.EvidenceEntry, error) {
	var e types.EvidenceEntry
	var kind, source, method, related, confidenceJSON string
	var timestampMillis int64
	if err := row.Scan(&e.ID, &kind, &e.Payload, &source, &method, &timestampMillis, &related, &confidenceJSON); err != nil {
		return types.EvidenceEntry{}, err
	}
	e.Kind = types.EvidenceKind(kind)
	e.Provenance = types.Provenance{Source: source, Method: method}
	e.Timestamp = time.UnixMilli(timestampMillis)
	if related != "" {
		if err := json.Unmarshal([]byte(related), &e.RelatedEntries); err != nil {
			return types.EvidenceEntry{}, err
		}
	}
	if confidenceJSON != "" {
		if err := json.Unmarshal([]byte(confidenceJSON), &e.Confidence); err != nil {
			return types.EvidenceEntry{}, err
		}
	}
	return e, nil
}

// GetEvidence looks up one persisted evidence entry by ID.
func (s *Store) GetEvidence(ctx context.Context, id int64) (types.EvidenceEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, payload, source, method, timestamp, related_entries, confidence_json
		FROM evidence_ledger WHERE id = ?`, id)
	e, err := scanEvidenceRow(row)
	if err == sql.ErrNoRows {
		return types.EvidenceEntry{}, ErrNotFound
	}
	return e, err
}
