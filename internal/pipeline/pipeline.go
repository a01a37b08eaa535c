// Package pipeline implements the Indexing Pipeline (spec.md §4.D): the
// phased orchestration that walks a workspace and populates the Durable
// Store with files, functions, modules, edges, embeddings, and context
// packs. Grounded on the teacher's internal/campaign/intelligence_gatherer.go
// fan-out idiom (errgroup.WithContext + a mutex-guarded error
// accumulator) for bounded concurrency, and on the teacher's phased,
// stateful run shape (internal/core/tdd_loop.go's state-enum loop) for
// the phase/report structure.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/cache"
	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/logging"
	"github.com/nateschmiedehaus/librarian-sub012/internal/pipeline/symbols"
	"github.com/nateschmiedehaus/librarian-sub012/internal/staleness"
	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// Phase names one stage of the indexing run, in execution order.
type Phase string

const (
	PhaseStructuralScan        Phase = "structural_scan"
	PhaseSymbolExtraction      Phase = "symbol_extraction"
	PhaseRelationshipDiscovery Phase = "relationship_discovery"
	PhaseEmbeddingGeneration   Phase = "embedding_generation"
	PhaseSummarization         Phase = "summarization"
	PhaseContextPackGeneration Phase = "context_pack_generation"
	PhaseCalibrationSeed       Phase = "calibration_seed"
	PhaseVerification          Phase = "verification"
)

// AllPhases lists every phase in run order, used to resolve ResumeFrom.
var AllPhases = []Phase{
	PhaseStructuralScan, PhaseSymbolExtraction, PhaseRelationshipDiscovery,
	PhaseEmbeddingGeneration, PhaseSummarization, PhaseContextPackGeneration,
	PhaseCalibrationSeed, PhaseVerification,
}

// PhaseReport summarizes one phase's execution ([FULL] addition,
// SPEC_FULL.md §4 — the distilled spec doesn't itemize per-phase
// reporting, but a pipeline this long needs partial-progress visibility).
type PhaseReport struct {
	Phase          Phase
	FilesProcessed int
	Skipped        int
	Errors         []string
	Duration       time.Duration
}

// RunReport is the full pipeline run's outcome.
type RunReport struct {
	Phases        []PhaseReport
	TotalDuration time.Duration
	Success       bool
}

// Options configures one Run.
type Options struct {
	MaxConcurrentWorkers int    // default 8, per spec.md §5 PipelineConfig
	ResumeFrom           Phase  // empty starts from PhaseStructuralScan
	ModelID              string // embedding model identifier to tag stored vectors with
}

// Pipeline wires the durable store, staleness tracker, symbol parser, and
// external LLM/embedding services into one phased indexing run.
type Pipeline struct {
	Store      *store.Store
	Staleness  *staleness.Tracker
	Parser     *symbols.Parser
	Embeddings llmsvc.EmbeddingService
	Chat       llmsvc.LlmService
	Governor   llmsvc.Governor
	FS         llmsvc.FileSystem
	Git        llmsvc.Git // optional; nil skips co-change edge discovery

	// SymbolCache is optional; when set, symbolExtraction looks up a
	// file's parse result by content checksum before invoking the
	// tree-sitter parser, and populates the cache on a miss (spec.md
	// §4.A's content-addressed cache applied to the indexing pipeline's
	// own most expensive per-file step).
	SymbolCache *cache.Cache[ParseResult]
}

// scanResult is one file's structural-scan outcome, threaded through
// later phases without re-reading the file.
type scanResult struct {
	path        string
	content     []byte
	category    types.FileCategory
	checksum    string
	symbols     []symbols.Symbol
	deps        []symbols.Dependency
	classified  staleness.Classification
}

// Run executes every phase from opts.ResumeFrom (or the beginning) to
// completion, returning a report of every phase's outcome. A phase that
// errors out is recorded and the whole run stops there — earlier phases'
// work is already durably committed, so a subsequent Run with
// ResumeFrom set to the failed phase picks up without redoing them.
func (p *Pipeline) Run(ctx context.Context, workspaceFiles []string, opts Options) (RunReport, error) {
	if opts.MaxConcurrentWorkers <= 0 {
		opts.MaxConcurrentWorkers = 8
	}
	if opts.ModelID == "" {
		opts.ModelID = "default"
	}

	if err := p.checkBudget(ctx); err != nil {
		return RunReport{}, err
	}

	runStart := time.Now()
	report := RunReport{Success: true}
	started := opts.ResumeFrom == ""

	var results []*scanResult

	for _, phase := range AllPhases {
		if !started {
			if phase == opts.ResumeFrom {
				started = true
			} else {
				continue
			}
		}

		phaseStart := time.Now()
		var pr PhaseReport
		var err error

		switch phase {
		case PhaseStructuralScan:
			results, pr, err = p.structuralScan(ctx, workspaceFiles, opts)
		case PhaseSymbolExtraction:
			pr, err = p.symbolExtraction(ctx, results, opts)
		case PhaseRelationshipDiscovery:
			pr, err = p.relationshipDiscovery(ctx, results, opts)
		case PhaseEmbeddingGeneration:
			pr, err = p.embeddingGeneration(ctx, results, opts)
		case PhaseSummarization:
			pr, err = p.summarization(ctx, results, opts)
		case PhaseContextPackGeneration:
			pr, err = p.contextPackGeneration(ctx, results, opts)
		case PhaseCalibrationSeed:
			pr, err = p.calibrationSeed(ctx, results, opts)
		case PhaseVerification:
			pr, err = p.verification(ctx, results, opts)
		}

		pr.Phase = phase
		pr.Duration = time.Since(phaseStart)
		report.Phases = append(report.Phases, pr)
		logging.Get(logging.CategoryPipeline).Info("phase %s: %d files, %d errors, %v", phase, pr.FilesProcessed, len(pr.Errors), pr.Duration)

		if err != nil {
			report.Success = false
			report.TotalDuration = time.Since(runStart)
			return report, err
		}
	}

	report.TotalDuration = time.Since(runStart)
	return report, nil
}

func (p *Pipeline) checkBudget(ctx context.Context) error {
	if p.Governor == nil {
		return nil
	}
	if err := p.Governor.CheckBudget(ctx); err != nil {
		return apperrors.New(apperrors.CodeBudgetExhausted, err.Error())
	}
	return nil
}

// runConcurrent runs worker over every item with at most maxWorkers
// in flight, collecting errors without aborting the remaining work —
// grounded on the teacher's intelligence_gatherer.go fan-out idiom
// (errgroup.WithContext plus a mutex-guarded error accumulator), adapted
// here to keep going past per-item failures instead of cancelling the
// group, since one bad file shouldn't sink an entire indexing phase.
func runConcurrent[T any](ctx context.Context, items []T, maxWorkers int, worker func(ctx context.Context, item T) error) []string {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	sem := make(chan struct{}, maxWorkers)
	var mu sync.Mutex
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := worker(gctx, item); err != nil {
				mu.Lock()
				errs = append(errs, err.Error())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
