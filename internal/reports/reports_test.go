package reports

import (
	"testing"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMRRRewardsEarlyHit(t *testing.T) {
	r := QueryResult{RankedTargetIDs: []string{"a", "b", "c"}, RelevantIDs: map[string]bool{"b": true}}
	assert.InDelta(t, 0.5, mrr(r), 1e-9)
}

func TestRecallAt5OnlyCountsTop5(t *testing.T) {
	r := QueryResult{
		RankedTargetIDs: []string{"a", "b", "c", "d", "e", "f"},
		RelevantIDs:     map[string]bool{"f": true},
	}
	assert.Equal(t, 0.0, recallAt5(r))
}

func TestNDCGAt5PerfectOrderingIsOne(t *testing.T) {
	r := QueryResult{
		RankedTargetIDs: []string{"a"},
		RelevantIDs:     map[string]bool{"a": true},
	}
	assert.InDelta(t, 1.0, ndcgAt5(r), 1e-9)
}

func TestBuildRetrievalQualityReportComputesCompliance(t *testing.T) {
	results := []QueryResult{
		{Query: "q1", RankedTargetIDs: []string{"a"}, RelevantIDs: map[string]bool{"a": true}},
	}
	targets := types.TargetsConfig{RecallAt5: 0.5, NDCGAt5: 0.5, MRR: 0.5}
	report := BuildRetrievalQualityReport(results, targets, nil, time.Now())
	assert.Equal(t, "RetrievalQualityReport.v1", report.Kind)
	assert.True(t, report.Compliance.RecallAt5Pass)
	assert.Nil(t, report.Trend)
}

func TestBuildRetrievalQualityReportComputesTrendAgainstPrior(t *testing.T) {
	results := []QueryResult{
		{Query: "q1", RankedTargetIDs: []string{"a"}, RelevantIDs: map[string]bool{"a": true}},
	}
	targets := types.TargetsConfig{}
	prior := &types.RetrievalQualityReport{Aggregate: types.RetrievalQueryMetric{RecallAt5: 0.2}}
	report := BuildRetrievalQualityReport(results, targets, prior, time.Now())
	require.NotNil(t, report.Trend)
	assert.Greater(t, report.Trend.RecallAt5Delta, 0.0)
}

func TestBuildGraphMetricsReportCarriesTotals(t *testing.T) {
	report := BuildGraphMetricsReport(3, 2, []types.GraphEntityMetric{{EntityID: "a"}})
	assert.Equal(t, 3, report.Totals.Nodes)
	assert.Equal(t, 2, report.Totals.Edges)
	assert.Len(t, report.Entities, 1)
}
