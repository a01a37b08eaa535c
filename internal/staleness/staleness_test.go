package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testTracker() *Tracker {
	return NewTracker(Config{
		VolatileThresholdMinutes: 30,
		StableThresholdHours:     24,
		ImmutablePatterns:        []string{"node_modules", ".git", "vendor", "*.lock"},
	})
}

func TestClassifyImmutableByPattern(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: "node_modules/foo/index.js", ModTime: now, Exists: true}, now)
	assert.Equal(t, Immutable, c.Durability)
	assert.Equal(t, PriorityImmutable, c.Priority)
}

func TestClassifyVolatileRecentEdit(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: "main.go", ModTime: now.Add(-5 * time.Minute), Exists: true}, now)
	assert.Equal(t, Volatile, c.Durability)
	assert.Equal(t, PriorityVolatile, c.Priority)
}

func TestClassifyStableOldFile(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: "main.go", ModTime: now.Add(-48 * time.Hour), Exists: true}, now)
	assert.Equal(t, Stable, c.Durability)
	assert.Equal(t, PriorityStable, c.Priority)
}

func TestClassifyFutureModTimeIsVolatile(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: "main.go", ModTime: now.Add(1 * time.Hour), Exists: true}, now)
	assert.Equal(t, Volatile, c.Durability)
}

func TestClassifyMissingFile(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: "gone.go", Exists: false}, now)
	assert.Equal(t, Missing, c.Durability)
	assert.NotEmpty(t, c.Reason)
}

func TestPathSeparatorsNormalizedBeforeMatching(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	c := tr.Classify(FileStat{Path: `node_modules\foo\index.js`, ModTime: now, Exists: true}, now)
	assert.Equal(t, Immutable, c.Durability)
}

func TestNeedsRevalidationTable(t *testing.T) {
	assert.False(t, NeedsRevalidation(Immutable, 0, true))
	assert.True(t, NeedsRevalidation(Volatile, 0, true))
	assert.False(t, NeedsRevalidation(Volatile, 2*time.Minute, false))
	assert.True(t, NeedsRevalidation(Volatile, 10*time.Minute, false))
	assert.True(t, NeedsRevalidation(Stable, 1*time.Minute, false))
	assert.True(t, NeedsRevalidation(Missing, 0, true))
}

func TestClassifyBatchPartitionsAndReportsStats(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	files := []FileStat{
		{Path: "node_modules/a.js", ModTime: now, Exists: true},
		{Path: "fresh.go", ModTime: now.Add(-1 * time.Minute), Exists: true},
		{Path: "old.go", ModTime: now.Add(-48 * time.Hour), Exists: true},
		{Path: "gone.go", Exists: false},
	}
	result := tr.ClassifyBatch(files, now)
	assert.Equal(t, 4, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.ImmutableCount)
	assert.Equal(t, 1, result.Stats.VolatileCount)
	assert.Equal(t, 1, result.Stats.StableCount)
	assert.Equal(t, 1, result.Stats.MissingCount)
	assert.Greater(t, result.Stats.SkipPercentage, 0.0)
	assert.Contains(t, result.Priority, "fresh.go")
}

func TestClassifyBatchSkipsAlreadyValidatedVolatile(t *testing.T) {
	tr := testTracker()
	now := time.Now()
	tr.MarkValidated("fresh.go", now.Add(-1*time.Minute))
	files := []FileStat{{Path: "fresh.go", ModTime: now.Add(-2 * time.Minute), Exists: true}}
	result := tr.ClassifyBatch(files, now)
	assert.Empty(t, result.Batch)
	assert.Len(t, result.Skip, 1)
}
