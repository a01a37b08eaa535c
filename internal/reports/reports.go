// Package reports assembles the Measurement & Reports artifacts (spec.md
// §4.K / §6): RetrievalQualityReport.v1 and CalibrationReport.v1, with
// schema versioning and trend diff against a prior report. The
// calibration half lives in internal/epistemic; this package adds the
// retrieval-quality half and the shared trend-diff plumbing.
package reports

import (
	"math"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// QueryResult is one evaluated query's raw hits, used to compute
// Recall@5, nDCG@5, and MRR against a relevance judgment.
type QueryResult struct {
	Query          string
	RankedTargetIDs []string
	RelevantIDs    map[string]bool
}

func recallAt5(r QueryResult) float64 {
	if len(r.RelevantIDs) == 0 {
		return 0
	}
	top := r.RankedTargetIDs
	if len(top) > 5 {
		top = top[:5]
	}
	var hits int
	for _, id := range top {
		if r.RelevantIDs[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(r.RelevantIDs))
}

func ndcgAt5(r QueryResult) float64 {
	top := r.RankedTargetIDs
	if len(top) > 5 {
		top = top[:5]
	}
	var dcg float64
	for i, id := range top {
		if r.RelevantIDs[id] {
			dcg += 1.0 / math.Log2(float64(i+2))
		}
	}
	var idealHits int
	if len(r.RelevantIDs) < 5 {
		idealHits = len(r.RelevantIDs)
	} else {
		idealHits = 5
	}
	var idcg float64
	for i := 0; i < idealHits; i++ {
		idcg += 1.0 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func mrr(r QueryResult) float64 {
	for i, id := range r.RankedTargetIDs {
		if r.RelevantIDs[id] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AggregateQueries computes per-query metrics and their mean aggregate.
func AggregateQueries(results []QueryResult) ([]types.RetrievalQueryMetric, types.RetrievalQueryMetric) {
	perQuery := make([]types.RetrievalQueryMetric, 0, len(results))
	var sumRecall, sumNDCG, sumMRR float64
	for _, r := range results {
		m := types.RetrievalQueryMetric{
			Query:     r.Query,
			RecallAt5: recallAt5(r),
			NDCGAt5:   ndcgAt5(r),
			MRR:       mrr(r),
		}
		perQuery = append(perQuery, m)
		sumRecall += m.RecallAt5
		sumNDCG += m.NDCGAt5
		sumMRR += m.MRR
	}
	var agg types.RetrievalQueryMetric
	if len(results) > 0 {
		n := float64(len(results))
		agg = types.RetrievalQueryMetric{RecallAt5: sumRecall / n, NDCGAt5: sumNDCG / n, MRR: sumMRR / n}
	}
	return perQuery, agg
}

// BuildRetrievalQualityReport assembles the RetrievalQualityReport.v1
// artifact, applying targets as the compliance gate and diffing against
// prior for trend, when given.
func BuildRetrievalQualityReport(results []QueryResult, targets types.TargetsConfig, prior *types.RetrievalQualityReport, now time.Time) types.RetrievalQualityReport {
	perQuery, agg := AggregateQueries(results)
	compliance := types.ComplianceFlags{
		RecallAt5Pass: agg.RecallAt5 >= targets.RecallAt5,
		NDCGAt5Pass:   agg.NDCGAt5 >= targets.NDCGAt5,
		MRRPass:       agg.MRR >= targets.MRR,
	}

	report := types.RetrievalQualityReport{
		Kind:          "RetrievalQualityReport.v1",
		SchemaVersion: 1,
		GeneratedAt:   now,
		Aggregate:     agg,
		PerQuery:      perQuery,
		Compliance:    compliance,
	}
	if prior != nil {
		report.Trend = &types.RetrievalTrend{
			RecallAt5Delta: agg.RecallAt5 - prior.Aggregate.RecallAt5,
			NDCGAt5Delta:   agg.NDCGAt5 - prior.Aggregate.NDCGAt5,
			MRRDelta:       agg.MRR - prior.Aggregate.MRR,
		}
	}
	return report
}

// BuildGraphMetricsReport assembles a GraphMetricsReport from a set of
// already-computed entity metrics ([FULL] addition, SPEC_FULL.md §4).
func BuildGraphMetricsReport(totalNodes, totalEdges int, entities []types.GraphEntityMetric) types.GraphMetricsReport {
	return types.GraphMetricsReport{
		Totals:   types.GraphTotals{Nodes: totalNodes, Edges: totalEdges},
		Entities: entities,
	}
}
