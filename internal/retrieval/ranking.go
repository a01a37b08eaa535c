package retrieval

import (
	"sort"
	"strings"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// Depth is a context pack's requested detail level.
type Depth string

const (
	DepthL0 Depth = "L0"
	DepthL1 Depth = "L1"
	DepthL2 Depth = "L2"
	DepthL3 Depth = "L3"
)

// TaskType names the caller's current activity, used to weight packs.
type TaskType string

const (
	TaskBugFix   TaskType = "bug_fix"
	TaskFeature  TaskType = "feature"
	TaskRefactor TaskType = "refactor"
	TaskReview   TaskType = "review"
	TaskGuidance TaskType = "guidance"
)

// defaultMaxPacksL1 is the default cap for L1 requests (spec.md §4.G).
const defaultMaxPacksL1 = 6

// depthWeight scales a pack type's contribution by requested depth; L0 is
// terse and favors only the highest-signal pack types.
var depthWeight = map[Depth]map[types.PackType]float64{
	DepthL0: {
		types.PackFunctionContext: 1.2, types.PackChangeImpact: 1.1,
	},
	DepthL1: {
		types.PackFunctionContext: 1.0, types.PackModuleContext: 1.0, types.PackChangeImpact: 1.0,
		types.PackPatternContext: 0.9, types.PackSimilarTasks: 0.9,
	},
	DepthL2: {
		types.PackFunctionContext: 0.9, types.PackModuleContext: 1.1, types.PackChangeImpact: 1.0,
		types.PackPatternContext: 1.0, types.PackSimilarTasks: 1.0, types.PackGitHistory: 1.0,
	},
	DepthL3: {
		types.PackFunctionContext: 0.8, types.PackModuleContext: 1.2, types.PackChangeImpact: 1.1,
		types.PackPatternContext: 1.1, types.PackSimilarTasks: 1.1, types.PackGitHistory: 1.2, types.PackDecisionContext: 1.2,
	},
}

// taskWeight scales a pack type's contribution by task type — bug-fix
// boosts test/history hits, guidance boosts docs and project-understanding.
var taskWeight = map[TaskType]map[types.PackType]float64{
	TaskBugFix: {
		types.PackSimilarTasks: 1.4, types.PackChangeImpact: 1.3, types.PackGitHistory: 1.2, types.PackFunctionContext: 0.9,
	},
	TaskFeature: {
		types.PackModuleContext: 1.3, types.PackPatternContext: 1.2, types.PackFunctionContext: 1.1,
	},
	TaskRefactor: {
		types.PackPatternContext: 1.3, types.PackModuleContext: 1.2, types.PackChangeImpact: 1.2, types.PackSimilarTasks: 1.1,
	},
	TaskReview: {
		types.PackChangeImpact: 1.3, types.PackSimilarTasks: 1.2, types.PackDecisionContext: 1.1,
	},
	TaskGuidance: {
		types.PackProjectUnderstanding: 1.4, types.PackDocContext: 1.3, types.PackDecisionContext: 1.2,
	},
}

// personaBoostDefault is the multiplier used in place of a missing entry
// in either table (depth or task) for a given pack type, keeping scores
// in a sane neighborhood.
const personaBoostDefault = 1.0

const personaMin = 0.2
const personaMax = 2.5

func personaWeight(depth Depth, taskType TaskType, pt types.PackType) float64 {
	d, okD := depthWeight[depth][pt]
	if !okD {
		d = personaBoostDefault
	}
	tw, okT := taskWeight[taskType][pt]
	if !okT {
		tw = personaBoostDefault
	}
	w := d * tw
	if w < personaMin {
		w = personaMin
	}
	if w > personaMax {
		w = personaMax
	}
	return w
}

// evalCorpusPathPenalty is applied when a related file sits under an
// eval-corpus, external-repos, or test-fixture path.
const evalCorpusPathPenalty = 0.1

var evalCorpusMarkers = []string{"eval-corpus", "external-repos", "test-fixture", "testfixtures", "testdata"}

func underEvalCorpus(paths []string) bool {
	for _, p := range paths {
		lower := strings.ToLower(p)
		for _, marker := range evalCorpusMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// RankInput bundles one candidate pack with the inputs needed to rank it.
type RankInput struct {
	Pack         types.ContextPack
	RelatedPaths []string
}

// RankedPack is a pack annotated with its final ranking score.
type RankedPack struct {
	Pack  types.ContextPack
	Score float64
}

// RankPacks scores, sorts, and truncates candidate packs per spec.md
// §4.G. scoreByTarget maps targetId to a retrieval score in [0,1]; a
// target absent from the map falls back to pack.Confidence alone.
func RankPacks(inputs []RankInput, scoreByTarget map[string]float64, depth Depth, taskType TaskType, maxPacks int) ([]RankedPack, float64) {
	if maxPacks <= 0 {
		maxPacks = defaultMaxPacksL1
	}
	ranked := make([]RankedPack, 0, len(inputs))
	for _, in := range inputs {
		var base float64
		if s, ok := scoreByTarget[in.Pack.TargetID]; ok {
			base = 0.7*s + 0.3*in.Pack.Confidence
		} else {
			base = in.Pack.Confidence
		}

		weight := personaWeight(depth, taskType, in.Pack.PackType)
		score := base * weight
		if underEvalCorpus(in.RelatedPaths) {
			score *= evalCorpusPathPenalty
		}
		ranked = append(ranked, RankedPack{Pack: in.Pack, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Pack.PackID < ranked[j].Pack.PackID
	})
	if len(ranked) > maxPacks {
		ranked = ranked[:maxPacks]
	}

	var sum float64
	for _, r := range ranked {
		sum += r.Score
	}
	var avg float64
	if len(ranked) > 0 {
		avg = sum / float64(len(ranked))
	}
	return ranked, avg
}
