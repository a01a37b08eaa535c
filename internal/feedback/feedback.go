// Package feedback implements the Feedback Loop (spec.md §4.I): outcome
// recording and Ochiai spectrum-based fault-localization attribution,
// linking observed task outcomes back to the packs that likely caused
// them. Grounded on the teacher's internal/embedding scoring idiom
// (small, pure, table-driven functions with explicit defaults).
package feedback

import (
	"math"
	"sort"
	"strings"
)

// MinSamples is the minimum observation count a pack needs before its
// Ochiai score is trusted; below it, a neutral 0.5 is used.
const MinSamples = 3

// nonKnowledgeTokens are failure-reason substrings that indicate the
// failure was not caused by a knowledge gap (spec.md §4.I).
var nonKnowledgeTokens = []string{"timeout", "provider_error", "network_error", "rate_limited", "cancelled"}

// knowledgeFailureHintTokens indicate the failure likely WAS a knowledge
// gap, overriding a borderline Ochiai score.
var knowledgeFailureHintTokens = []string{"wrong_approach", "missing_context", "outdated_info", "incorrect_assumption"}

// Outcome is one recorded use of a pack.
type Outcome struct {
	Success bool
	Reason  string // failure reason token, empty on success
}

// PackStats accumulates success/failure counts for one pack across runs.
type PackStats struct {
	PackID        string
	SuccessCount  int
	FailureCount  int
}

// Observations returns the total number of recorded outcomes for a pack.
func (s PackStats) Observations() int { return s.SuccessCount + s.FailureCount }

// RecordPackOutcome bumps the stats counters for a pack's observed
// outcome. Mutates stats in place; nothing is returned.
func RecordPackOutcome(stats *PackStats, success bool) {
	if success {
		stats.SuccessCount++
	} else {
		stats.FailureCount++
	}
}

// OchiaiScore computes the Ochiai SBFL score for one candidate pack:
// fail_p / sqrt(total_failures * (fail_p + succ_p)), with a neutral 0.5
// below MinSamples observations and 0.0 if there are no failures at all.
func OchiaiScore(stats PackStats, totalFailures int) float64 {
	if stats.Observations() < MinSamples {
		return 0.5
	}
	if totalFailures == 0 {
		return 0.0
	}
	failP := float64(stats.FailureCount)
	succP := float64(stats.SuccessCount)
	denom := math.Sqrt(float64(totalFailures) * (failP + succP))
	if denom == 0 {
		return 0.0
	}
	return failP / denom
}

// CausalAttribution is the result of attributing a failure to candidate
// packs (spec.md §4.I).
type CausalAttribution struct {
	KnowledgeCaused bool
	Confidence      float64
	SuspiciousPacks []ScoredPack
	RecommendPackID string
	Recommendation  string
}

// ScoredPack pairs a pack id with its Ochiai score.
type ScoredPack struct {
	PackID string
	Score  float64
}

func containsToken(reason string, tokens []string) bool {
	lower := strings.ToLower(reason)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// AttributeFailure classifies an observed outcome and, on failure,
// computes Ochiai scores across candidate packs' stats to recommend
// re-indexing the most suspicious one.
func AttributeFailure(outcome Outcome, candidates []PackStats) CausalAttribution {
	if outcome.Success {
		return CausalAttribution{KnowledgeCaused: false, Confidence: 0.2}
	}
	if containsToken(outcome.Reason, nonKnowledgeTokens) {
		return CausalAttribution{
			KnowledgeCaused: false,
			Confidence:      0.6,
			Recommendation:  "non-knowledge failure: retry or check provider health",
		}
	}

	totalFailures := 0
	for _, c := range candidates {
		totalFailures += c.FailureCount
	}

	scored := make([]ScoredPack, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredPack{PackID: c.PackID, Score: OchiaiScore(c, totalFailures)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].PackID < scored[j].PackID
	})

	var topScore float64
	var topPackID string
	if len(scored) > 0 {
		topScore = scored[0].Score
		topPackID = scored[0].PackID
	}

	knowledgeCaused := containsToken(outcome.Reason, knowledgeFailureHintTokens) || topScore > 0.4

	var suspicious []ScoredPack
	for _, s := range scored {
		if s.Score > 0.2 {
			suspicious = append(suspicious, s)
		}
	}

	attribution := CausalAttribution{
		KnowledgeCaused: knowledgeCaused,
		Confidence:      topScore,
		SuspiciousPacks: suspicious,
	}
	if knowledgeCaused && topPackID != "" {
		attribution.RecommendPackID = topPackID
		attribution.Recommendation = "re-index " + topPackID
	}
	return attribution
}
