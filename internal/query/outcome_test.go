package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/epistemic"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

func TestRecordOutcomePersistsAndAttributes(t *testing.T) {
	p, _ := seedPipeline(t)
	const packID = "internal/widget/widget.go#module_context"

	p.Calibration = epistemic.NewCalibrationTracker()
	p.Ledger = epistemic.NewLedger()

	attribution, err := p.RecordOutcome(context.Background(), packID, false, "wrong_approach", time.Now())
	require.NoError(t, err)
	assert.True(t, attribution.KnowledgeCaused)

	rows, err := p.Store.OutcomesForPack(context.Background(), packID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.False(t, rows[0].Success)

	entries := p.Ledger.Query(epistemic.QueryFilter{Kinds: []types.EvidenceKind{types.EvidenceOutcome}})
	assert.Len(t, entries, 1)
}

func TestRecordOutcomeWorksWithoutOptionalCollaborators(t *testing.T) {
	p, _ := seedPipeline(t)
	const packID = "internal/widget/widget.go#module_context"

	_, err := p.RecordOutcome(context.Background(), packID, true, "", time.Now())
	assert.NoError(t, err)
}
