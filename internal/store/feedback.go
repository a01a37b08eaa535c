package store

import (
	"context"
	"database/sql"
	"time"
)

// RecordOutcome appends a raw task outcome row, independent of which pack
// it's attributed to (spec.md §4.F keeps the append-only trail that
// causal attribution later replays).
func (s *Store) RecordOutcome(ctx context.Context, packID string, success bool, reason string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (pack_id, success, reason, recorded_at) VALUES (?, ?, ?, ?)
	`, packID, boolToInt(success), reason, at.UnixMilli())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// OutcomeRow is one persisted task outcome.
type OutcomeRow struct {
	PackID     string
	Success    bool
	Reason     string
	RecordedAt time.Time
}

// OutcomesForPack returns every recorded outcome for packID, oldest first.
func (s *Store) OutcomesForPack(ctx context.Context, packID string) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pack_id, success, reason, recorded_at FROM outcomes WHERE pack_id = ? ORDER BY recorded_at ASC`, packID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var r OutcomeRow
		var success int
		var recordedAtMillis int64
		if err := rows.Scan(&r.PackID, &success, &r.Reason, &recordedAtMillis); err != nil {
			return nil, err
		}
		r.Success = success != 0
		r.RecordedAt = time.UnixMilli(recordedAtMillis)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TotalFailures counts every failed outcome across all packs, the
// denominator AttributeFailure's Ochiai score needs (internal/feedback).
func (s *Store) TotalFailures(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcomes WHERE success = 0`).Scan(&n)
	return n, err
}

// SaveCalibrationReport appends a versioned calibration report snapshot.
func (s *Store) SaveCalibrationReport(ctx context.Context, schemaVersion int, reportJSON string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calibration_reports (schema_version, generated_at, report_json) VALUES (?, ?, ?)
	`, schemaVersion, at.UnixMilli(), reportJSON)
	return err
}

// LatestCalibrationReport returns the most recently saved report's JSON, if any.
func (s *Store) LatestCalibrationReport(ctx context.Context) (string, bool, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT report_json FROM calibration_reports ORDER BY id DESC LIMIT 1`).Scan(&reportJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return reportJSON, true, nil
}
