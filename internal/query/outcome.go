package query

import (
	"context"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/epistemic"
	"github.com/nateschmiedehaus/librarian-sub012/internal/feedback"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// RecordOutcome closes the feedback loop (spec.md §4.I) for one delivered
// pack: it persists the raw outcome, attributes a failure to the pack via
// Ochiai scoring against that pack's own history, and — when Calibration
// or Ledger are set — records a calibration sample and an append-only
// evidence entry. Calibration and Ledger are optional so a caller that
// only needs durable outcome storage isn't forced to wire them.
func (p *Pipeline) RecordOutcome(ctx context.Context, packID string, success bool, reason string, at time.Time) (feedback.CausalAttribution, error) {
	if err := p.Store.RecordOutcome(ctx, packID, success, reason, at); err != nil {
		return feedback.CausalAttribution{}, err
	}

	rows, err := p.Store.OutcomesForPack(ctx, packID)
	if err != nil {
		return feedback.CausalAttribution{}, err
	}
	stats := feedback.PackStats{PackID: packID}
	for _, r := range rows {
		feedback.RecordPackOutcome(&stats, r.Success)
	}

	attribution := feedback.AttributeFailure(
		feedback.Outcome{Success: success, Reason: reason},
		[]feedback.PackStats{stats},
	)

	pack, err := p.Store.GetPack(ctx, packID)
	if err == nil {
		if p.Calibration != nil {
			p.Calibration.Record(pack.Confidence, success, at)
		}

		entry := types.EvidenceEntry{
			Kind:       types.EvidenceOutcome,
			Payload:    packID,
			Provenance: types.Provenance{Source: "query.Pipeline.RecordOutcome", Method: "feedback_loop"},
			Timestamp:  at,
			Confidence: types.Deterministic(confidenceOf(success), "observed_outcome"),
		}
		if verr := epistemic.ValidateEvidenceEntry(entry); verr == nil {
			// Persisted durably so a restarted engine can replay the trail
			// (store/evidence.go), and mirrored into the in-process ledger
			// when one is wired so same-session queries see it immediately.
			if stored, err := p.Store.AppendEvidence(ctx, entry); err == nil {
				entry = stored
			}
			if p.Ledger != nil {
				p.Ledger.Append(entry)
			}
		}
	}

	return attribution, nil
}

func confidenceOf(success bool) float64 {
	if success {
		return 1.0
	}
	return 0.0
}
