// Package staleness classifies files into durability tiers and decides
// which ones need revalidation before the indexing pipeline spends work
// on them (spec.md §4.C). Grounded on the teacher's staleness-adjacent
// scan gating in internal/world, generalized to the three-tier model the
// specification describes.
package staleness

import (
	"path"
	"strings"
	"time"
)

// Durability classifies a file's expected rate of change.
type Durability string

const (
	Immutable Durability = "IMMUTABLE"
	Stable    Durability = "STABLE"
	Volatile  Durability = "VOLATILE"
	Missing   Durability = "MISSING"
)

// Priority values used for scheduling, per spec.md §4.C.
const (
	PriorityImmutable = 0
	PriorityStable    = 1
	PriorityVolatile  = 10
)

func (d Durability) Priority() int {
	switch d {
	case Volatile:
		return PriorityVolatile
	case Stable:
		return PriorityStable
	default:
		return PriorityImmutable
	}
}

// Config controls classification thresholds and immutable-path patterns.
type Config struct {
	VolatileThresholdMinutes int
	StableThresholdHours     int
	ImmutablePatterns        []string
}

// FileStat is the minimal information the classifier needs about a file.
type FileStat struct {
	Path    string
	ModTime time.Time
	Exists  bool
}

// Classification is the verdict for one file.
type Classification struct {
	Path       string
	Durability Durability
	Priority   int
	Reason     string // set for MISSING, e.g. "file not found"
}

// Tracker classifies files and decides revalidation per spec.md §4.C's
// table (never/within-5-min/within-1-hour/over-1-hour windows).
type Tracker struct {
	cfg             Config
	lastValidatedAt map[string]time.Time
}

// NewTracker builds a Tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	if cfg.VolatileThresholdMinutes <= 0 {
		cfg.VolatileThresholdMinutes = 30
	}
	if cfg.StableThresholdHours <= 0 {
		cfg.StableThresholdHours = 24
	}
	return &Tracker{cfg: cfg, lastValidatedAt: make(map[string]time.Time)}
}

// normalizePath converts to forward-slash separators before matching,
// per spec.md §4.C ("path separators are normalized before pattern
// matching").
func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func (t *Tracker) matchesImmutable(normalizedPath string) bool {
	for _, pattern := range t.cfg.ImmutablePatterns {
		if strings.Contains(normalizedPath, "/"+pattern+"/") || strings.HasPrefix(normalizedPath, pattern+"/") {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(normalizedPath)); ok {
			return true
		}
		if strings.Contains(normalizedPath, pattern) && (strings.HasSuffix(pattern, ".lock") || strings.Contains(pattern, "lock")) {
			if strings.HasSuffix(normalizedPath, pattern) {
				return true
			}
		}
	}
	return false
}

// Classify returns the durability class, scheduling priority, and (for
// MISSING files) a reason for stat.
func (t *Tracker) Classify(stat FileStat, now time.Time) Classification {
	norm := normalizePath(stat.Path)

	if !stat.Exists {
		return Classification{Path: stat.Path, Durability: Missing, Priority: PriorityImmutable, Reason: "file not found"}
	}
	if t.matchesImmutable(norm) {
		return Classification{Path: stat.Path, Durability: Immutable, Priority: PriorityImmutable}
	}

	age := now.Sub(stat.ModTime)
	// Future modification times are treated as VOLATILE (spec.md §4.C edge case).
	if age < 0 || age <= time.Duration(t.cfg.VolatileThresholdMinutes)*time.Minute {
		return Classification{Path: stat.Path, Durability: Volatile, Priority: PriorityVolatile}
	}
	// "STABLE — everything else, reached after stableThresholdHours" (spec.md
	// §4.C): a file only becomes STABLE once it clears that threshold; between
	// the two thresholds it remains VOLATILE, per the documented boundary
	// decision (see DESIGN.md Open Question 3).
	if age <= time.Duration(t.cfg.StableThresholdHours)*time.Hour {
		return Classification{Path: stat.Path, Durability: Volatile, Priority: PriorityVolatile}
	}
	return Classification{Path: stat.Path, Durability: Stable, Priority: PriorityStable}
}

// NeedsRevalidation applies the revalidation-policy table: whether a file
// classified as durability d, last validated validatedAgo ago, should be
// re-checked now.
func NeedsRevalidation(d Durability, validatedAgo time.Duration, neverValidated bool) bool {
	switch d {
	case Immutable:
		return false
	case Volatile:
		if neverValidated {
			return true
		}
		return validatedAgo > 5*time.Minute
	case Stable:
		return true
	default: // Missing
		return true
	}
}

// BatchStats summarizes a classifyBatch run.
type BatchStats struct {
	Total             int
	SkipPercentage    float64
	ImmutableCount    int
	StableCount       int
	VolatileCount     int
	MissingCount      int
}

// BatchResult is the output of ClassifyBatch.
type BatchResult struct {
	Skip     []Classification
	Batch    []Classification
	Priority map[string]int
	Stats    BatchStats
}

// ClassifyBatch partitions files into those to skip (IMMUTABLE, or
// VOLATILE/STABLE that don't need revalidation) and those to batch for
// re-indexing, with per-class stats and a priority map.
func (t *Tracker) ClassifyBatch(files []FileStat, now time.Time) BatchResult {
	result := BatchResult{Priority: make(map[string]int)}
	for _, f := range files {
		c := t.Classify(f, now)
		result.Priority[c.Path] = c.Priority

		switch c.Durability {
		case Immutable:
			result.Stats.ImmutableCount++
			result.Skip = append(result.Skip, c)
			continue
		case Stable:
			result.Stats.StableCount++
		case Volatile:
			result.Stats.VolatileCount++
		case Missing:
			result.Stats.MissingCount++
		}

		validatedAt, seen := t.lastValidatedAt[c.Path]
		var validatedAgo time.Duration
		if seen {
			validatedAgo = now.Sub(validatedAt)
		}
		if NeedsRevalidation(c.Durability, validatedAgo, !seen) {
			result.Batch = append(result.Batch, c)
		} else {
			result.Skip = append(result.Skip, c)
		}
	}
	result.Stats.Total = len(files)
	if result.Stats.Total > 0 {
		result.Stats.SkipPercentage = float64(len(result.Skip)) / float64(result.Stats.Total)
	}
	return result
}

// MarkValidated records that path was revalidated at now, so future
// ClassifyBatch calls know its last-validated time.
func (t *Tracker) MarkValidated(filePath string, now time.Time) {
	t.lastValidatedAt[filePath] = now
}
