package epistemic

import (
	"math"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// numBuckets is the number of equal-width confidence buckets the
// calibration tracker uses (spec.md §4.J).
const numBuckets = 10

// minPredictionsForFullReport gates a full report; below it, a skeleton
// with zero buckets is emitted.
const minPredictionsForFullReport = 10

// Prediction is one recorded (confidence, outcome) pair.
type Prediction struct {
	Confidence float64
	Correct    bool
	When       time.Time
}

// CalibrationTracker accumulates predictions and computes ECE, Brier
// score, and trend direction.
type CalibrationTracker struct {
	predictions []Prediction
}

// NewCalibrationTracker returns an empty tracker.
func NewCalibrationTracker() *CalibrationTracker {
	return &CalibrationTracker{}
}

// Record adds a prediction/outcome pair.
func (t *CalibrationTracker) Record(confidence float64, correct bool, when time.Time) {
	t.predictions = append(t.predictions, Prediction{Confidence: confidence, Correct: correct, When: when})
}

func bucketIndex(confidence float64) int {
	idx := int(confidence * float64(numBuckets))
	if idx >= numBuckets {
		idx = numBuckets - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func computeBuckets(preds []Prediction) []types.CalibrationBucket {
	sums := make([]float64, numBuckets)
	corrects := make([]float64, numBuckets)
	counts := make([]int, numBuckets)
	for _, p := range preds {
		idx := bucketIndex(p.Confidence)
		sums[idx] += p.Confidence
		counts[idx]++
		if p.Correct {
			corrects[idx]++
		}
	}
	buckets := make([]types.CalibrationBucket, numBuckets)
	for i := 0; i < numBuckets; i++ {
		if counts[i] == 0 {
			buckets[i] = types.CalibrationBucket{SampleSize: 0}
			continue
		}
		buckets[i] = types.CalibrationBucket{
			StatedMean:        sums[i] / float64(counts[i]),
			EmpiricalAccuracy: corrects[i] / float64(counts[i]),
			SampleSize:        counts[i],
		}
	}
	return buckets
}

func ece(buckets []types.CalibrationBucket, total int) float64 {
	if total == 0 {
		return 0
	}
	var sum float64
	for _, b := range buckets {
		if b.SampleSize == 0 {
			continue
		}
		weight := float64(b.SampleSize) / float64(total)
		sum += weight * math.Abs(b.StatedMean-b.EmpiricalAccuracy)
	}
	return sum
}

func brier(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for _, p := range preds {
		outcome := 0.0
		if p.Correct {
			outcome = 1.0
		}
		diff := p.Confidence - outcome
		sum += diff * diff
	}
	return sum / float64(len(preds))
}

func overUnderBuckets(buckets []types.CalibrationBucket) (over, under []int) {
	for i, b := range buckets {
		if b.SampleSize == 0 {
			continue
		}
		if b.StatedMean > b.EmpiricalAccuracy {
			over = append(over, i)
		} else if b.StatedMean < b.EmpiricalAccuracy {
			under = append(under, i)
		}
	}
	return
}

func meanAbsError(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for _, p := range preds {
		outcome := 0.0
		if p.Correct {
			outcome = 1.0
		}
		sum += math.Abs(p.Confidence - outcome)
	}
	return sum / float64(len(preds))
}

// computeTrend compares the mean error of the most-recent half-window
// against the older half: improving if delta <= -0.02, degrading if
// delta >= +0.02, else stable.
func computeTrend(preds []Prediction) *types.CalibrationTrend {
	if len(preds) < 2 {
		return nil
	}
	mid := len(preds) / 2
	older := preds[:mid]
	recent := preds[mid:]
	olderErr := meanAbsError(older)
	recentErr := meanAbsError(recent)
	delta := recentErr - olderErr

	direction := types.TrendStable
	if delta <= -0.02 {
		direction = types.TrendImproving
	} else if delta >= 0.02 {
		direction = types.TrendDegrading
	}
	olderBuckets := computeBuckets(older)
	return &types.CalibrationTrend{
		Direction:      direction,
		MeanErrorDelta: delta,
		PriorECE:       ece(olderBuckets, len(older)),
	}
}

// Report produces a CalibrationReport.v1. Below minPredictionsForFullReport
// observations, a skeleton report with zero buckets is returned.
func (t *CalibrationTracker) Report(now time.Time) types.CalibrationReport {
	if len(t.predictions) < minPredictionsForFullReport {
		return types.CalibrationReport{
			Kind:          "CalibrationReport.v1",
			SchemaVersion: 1,
			GeneratedAt:   now,
			Buckets:       []types.CalibrationBucket{},
		}
	}

	buckets := computeBuckets(t.predictions)
	over, under := overUnderBuckets(buckets)
	return types.CalibrationReport{
		Kind:                  "CalibrationReport.v1",
		SchemaVersion:         1,
		GeneratedAt:           now,
		Buckets:               buckets,
		OverallECE:            ece(buckets, len(t.predictions)),
		OverallBrier:          brier(t.predictions),
		OverconfidentBuckets:  over,
		UnderconfidentBuckets: under,
		Trend:                 computeTrend(t.predictions),
	}
}
