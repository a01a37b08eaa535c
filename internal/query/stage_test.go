package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageTrackerSuccessRequiresOutputAndNoIssues(t *testing.T) {
	tr := NewStageTracker()
	tr.Start(StageSemanticRetrieval, 5)
	tr.Finish(StageSemanticRetrieval, 3, 2)

	reports := tr.Reports()
	got := reports[0]
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, 5, got.InputCount)
	assert.Equal(t, 3, got.OutputCount)
}

func TestStageTrackerPartialWhenOutputEmptyWithoutIssues(t *testing.T) {
	tr := NewStageTracker()
	tr.Start(StageDirectPacks, 0)
	tr.Finish(StageDirectPacks, 0, 0)

	assert.Equal(t, StatusPartial, tr.Reports()[0].Status)
}

func TestStageTrackerFailedWhenIssuesAndNoOutput(t *testing.T) {
	tr := NewStageTracker()
	tr.Start(StageGraphExpansion, 2)
	tr.Issue(StageGraphExpansion, "store unavailable")
	tr.Finish(StageGraphExpansion, 0, 0)

	assert.Equal(t, StatusFailed, tr.Reports()[0].Status)
	assert.Contains(t, tr.Reports()[0].Issues, "store unavailable")
}

func TestStageTrackerFinalizeMissingMarksSkipped(t *testing.T) {
	tr := NewStageTracker()
	tr.Start(StageSemanticRetrieval, 1)
	tr.Finish(StageSemanticRetrieval, 1, 0)
	tr.FinalizeMissing(AllStages)

	reports := tr.Reports()
	assert.Len(t, reports, len(AllStages))
	var synthesis StageReport
	for _, r := range reports {
		if r.Stage == StageSynthesis {
			synthesis = r
		}
	}
	assert.Equal(t, StatusSkipped, synthesis.Status)
}
