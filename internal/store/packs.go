package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// UpsertPack inserts or replaces a context pack row.
func (s *Store) UpsertPack(ctx context.Context, p types.ContextPack) error {
	keyFacts, err := json.Marshal(p.KeyFacts)
	if err != nil {
		return err
	}
	snippets, err := json.Marshal(p.CodeSnippets)
	if err != nil {
		return err
	}
	triggers, err := json.Marshal(p.InvalidationTriggers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO packs (pack_id, pack_type, target_id, summary, key_facts, code_snippets, related_files,
		                    confidence, access_count, last_outcome, success_count, failure_count, version, invalidation_triggers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pack_id) DO UPDATE SET
			pack_type = excluded.pack_type,
			target_id = excluded.target_id,
			summary = excluded.summary,
			key_facts = excluded.key_facts,
			code_snippets = excluded.code_snippets,
			related_files = excluded.related_files,
			confidence = excluded.confidence,
			version = packs.version + 1,
			invalidation_triggers = excluded.invalidation_triggers
	`, p.PackID, string(p.PackType), p.TargetID, types.TruncateSummary(p.Summary), string(keyFacts), string(snippets),
		strings.Join(p.RelatedFiles, ","), p.Confidence, p.AccessCount, string(p.LastOutcome), p.SuccessCount,
		p.FailureCount, maxInt(p.Version, 1), string(triggers))
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GetPack looks up a context pack by ID.
func (s *Store) GetPack(ctx context.Context, packID string) (types.ContextPack, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT pack_id, pack_type, target_id, summary, key_facts, code_snippets, related_files,
		       confidence, access_count, last_outcome, success_count, failure_count, version, invalidation_triggers
		FROM packs WHERE pack_id = ?`, packID)
	return scanPack(row)
}

// PacksForTarget returns every pack whose TargetID matches targetID.
func (s *Store) PacksForTarget(ctx context.Context, targetID string) ([]types.ContextPack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pack_id, pack_type, target_id, summary, key_facts, code_snippets, related_files,
		       confidence, access_count, last_outcome, success_count, failure_count, version, invalidation_triggers
		FROM packs WHERE target_id = ?`, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ContextPack
	for rows.Next() {
		p, err := scanPackRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PacksByType returns every pack of a given type, used by the query
// pipeline to assemble persona-weighted rankings (internal/retrieval).
func (s *Store) PacksByType(ctx context.Context, packType types.PackType) ([]types.ContextPack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pack_id, pack_type, target_id, summary, key_facts, code_snippets, related_files,
		       confidence, access_count, last_outcome, success_count, failure_count, version, invalidation_triggers
		FROM packs WHERE pack_type = ?`, string(packType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ContextPack
	for rows.Next() {
		p, err := scanPackRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordPackOutcome updates a pack's rolling feedback counters after use
// (spec.md §4.F).
func (s *Store) RecordPackOutcome(ctx context.Context, packID string, success bool) error {
	outcome := types.OutcomeFailure
	col := "failure_count"
	if success {
		outcome = types.OutcomeSuccess
		col = "success_count"
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE packs SET access_count = access_count + 1, `+col+` = `+col+` + 1, last_outcome = ?
		WHERE pack_id = ?`, string(outcome), packID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPack(row *sql.Row) (types.ContextPack, error) {
	p, err := scanPackRows(row)
	if err == sql.ErrNoRows {
		return types.ContextPack{}, ErrNotFound
	}
	return p, err
}

func scanPackRows(row rowScanner) (types.ContextPack, error) {
	var p types.ContextPack
	var packType, keyFacts, snippets, relatedFiles, lastOutcome, triggers string
	if err := row.Scan(&p.PackID, &packType, &p.TargetID, &p.Summary, &keyFacts, &snippets, &relatedFiles,
		&p.Confidence, &p.AccessCount, &lastOutcome, &p.SuccessCount, &p.FailureCount, &p.Version, &triggers); err != nil {
		return types.ContextPack{}, err
	}
	p.PackType = types.PackType(packType)
	p.LastOutcome = types.Outcome(lastOutcome)
	if relatedFiles != "" {
		p.RelatedFiles = strings.Split(relatedFiles, ",")
	}
	if keyFacts != "" {
		if err := json.Unmarshal([]byte(keyFacts), &p.KeyFacts); err != nil {
			return types.ContextPack{}, err
		}
	}
	if snippets != "" {
		if err := json.Unmarshal([]byte(snippets), &p.CodeSnippets); err != nil {
			return types.ContextPack{}, err
		}
	}
	if triggers != "" {
		if err := json.Unmarshal([]byte(triggers), &p.InvalidationTriggers); err != nil {
			return types.ContextPack{}, err
		}
	}
	return p, nil
}
