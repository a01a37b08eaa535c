package query

import (
	"context"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/epistemic"
	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/retrieval"
	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// maxSemanticCandidates bounds how many top-K semantic matches seed
// direct-pack lookup and graph expansion.
const maxSemanticCandidates = 20

// Pipeline wires the durable store, retrieval scoring, and session
// manager into one question-answering entry point (spec.md §4.H).
type Pipeline struct {
	Store      *store.Store
	Embeddings llmsvc.EmbeddingService
	Sessions   *Manager
	ModelID    string

	// Calibration and Ledger are optional; when set, RecordOutcome feeds
	// delivered-pack outcomes into the epistemic layer's calibration
	// tracker and evidence ledger (spec.md §4.I, §4.J) in addition to
	// durable storage.
	Calibration *epistemic.CalibrationTracker
	Ledger      *epistemic.Ledger
}

// NewPipeline builds a Pipeline with a fresh Manager under cfg.
func NewPipeline(s *store.Store, emb llmsvc.EmbeddingService, modelID string, cfg ManagerConfig) *Pipeline {
	return &Pipeline{Store: s, Embeddings: emb, Sessions: NewManager(cfg), ModelID: modelID}
}

// AskOptions controls one Ask call's ranking behavior; zero values are
// inferred from the question text.
type AskOptions struct {
	TaskType retrieval.TaskType
	Depth    retrieval.Depth
	MaxPacks int
}

// AskResult is one query run's full outcome: the session it ran under,
// the ranked packs (with Confidence overwritten by the final rank
// score), the average score, the stage-by-stage report, and the
// selected scenario guidance.
type AskResult struct {
	SessionID    string
	Packs        []types.ContextPack
	AverageScore float64
	Stages       []StageReport
	Scenario     Scenario
}

type askMeta struct {
	avgScore float64
	taskType retrieval.TaskType
}

// Ask answers question, starting a new session if sessionID is empty or
// continuing an existing one otherwise. A failed Ask never mutates
// session state (spec.md §4.H); the caller still receives whatever
// stage reports were recorded before the failure.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question string, opts AskOptions) (AskResult, error) {
	if sessionID == "" {
		s, err := p.Sessions.Start(time.Now())
		if err != nil {
			return AskResult{}, err
		}
		sessionID = s.ID
	}

	tracker := NewStageTracker()
	packs, metaAny, err := p.Sessions.Followup(sessionID, question, func(snap Session) ([]types.ContextPack, interface{}, error) {
		out, meta, rerr := p.runRetrieval(ctx, question, opts, tracker)
		return out, meta, rerr
	})
	tracker.FinalizeMissing(AllStages)

	result := AskResult{SessionID: sessionID, Stages: tracker.Reports()}
	if err != nil {
		return result, err
	}

	meta := metaAny.(askMeta)
	result.Packs = packs
	result.AverageScore = meta.avgScore
	result.Scenario = SelectScenario(question, meta.taskType)
	return result, nil
}

// runRetrieval executes the four stages against the live store,
// independent of any particular session's accumulated state — spec.md
// §4.H's stages consult the store and retrieval scoring directly, not
// the session (sessions only accumulate the results across turns).
func (p *Pipeline) runRetrieval(ctx context.Context, question string, opts AskOptions, tracker *StageTracker) ([]types.ContextPack, askMeta, error) {
	taskType := opts.TaskType
	if taskType == "" {
		taskType = ClassifyTaskType(question)
	}
	depth := opts.Depth
	if depth == "" {
		depth = InferDepth(question)
	}
	meta := askMeta{taskType: taskType}

	expanded := retrieval.ExpandQuery(question)

	tracker.Start(StageSemanticRetrieval, 1)
	scoreByTarget := make(map[string]float64)
	var semanticTargets []string
	if p.Embeddings != nil {
		vec, err := p.Embeddings.Embed(ctx, expanded, p.ModelID)
		if err != nil {
			tracker.Issue(StageSemanticRetrieval, err.Error())
		} else {
			matches, err := p.Store.SearchSimilar(ctx, types.AspectSemantic, p.ModelID, vec, maxSemanticCandidates)
			if err != nil {
				tracker.Issue(StageSemanticRetrieval, err.Error())
			} else {
				for _, m := range matches {
					scoreByTarget[m.FilePath] = m.Score
					semanticTargets = append(semanticTargets, m.FilePath)
				}
			}
		}
	}
	tracker.Finish(StageSemanticRetrieval, len(semanticTargets), 0)

	tracker.Start(StageDirectPacks, len(semanticTargets))
	seen := make(map[string]bool)
	var candidates []retrieval.RankInput
	for _, target := range semanticTargets {
		packsForTarget, err := p.Store.PacksForTarget(ctx, target)
		if err != nil {
			tracker.Issue(StageDirectPacks, err.Error())
			continue
		}
		for _, pk := range packsForTarget {
			if seen[pk.PackID] {
				continue
			}
			seen[pk.PackID] = true
			candidates = append(candidates, retrieval.RankInput{Pack: pk, RelatedPaths: pk.RelatedFiles})
		}
	}
	tracker.Finish(StageDirectPacks, len(candidates), 0)

	tracker.Start(StageGraphExpansion, len(semanticTargets))
	expandedCount := 0
	for _, target := range semanticTargets {
		edges, err := p.Store.EdgesFrom(ctx, target)
		if err != nil {
			tracker.Issue(StageGraphExpansion, err.Error())
			continue
		}
		for _, e := range edges {
			relatedPacks, err := p.Store.PacksForTarget(ctx, e.ToID)
			if err != nil {
				continue
			}
			for _, pk := range relatedPacks {
				if seen[pk.PackID] {
					continue
				}
				seen[pk.PackID] = true
				candidates = append(candidates, retrieval.RankInput{Pack: pk, RelatedPaths: pk.RelatedFiles})
				expandedCount++
			}
		}
	}
	tracker.Finish(StageGraphExpansion, expandedCount, 0)

	tracker.Start(StageSynthesis, len(candidates))
	ranked, avg := retrieval.RankPacks(candidates, scoreByTarget, depth, taskType, opts.MaxPacks)
	out := make([]types.ContextPack, 0, len(ranked))
	for _, r := range ranked {
		pk := r.Pack
		pk.Confidence = r.Score
		out = append(out, pk)
	}
	tracker.Finish(StageSynthesis, len(out), len(candidates)-len(out))

	meta.avgScore = avg
	return out, meta, nil
}
