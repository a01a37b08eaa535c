package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/nateschmiedehaus/librarian-sub012/internal/pipeline/symbols"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// ParseResult is the cacheable shape of a Parser.Parse call, keyed by
// content checksum so an unchanged file never re-pays tree-sitter parse
// cost across runs (spec.md §4.A content cache, wired here rather than
// left reachable only from internal/cache's own tests).
type ParseResult struct {
	Symbols []symbols.Symbol
	Deps    []symbols.Dependency
}

func (p *Pipeline) parseCached(ctx context.Context, path, checksum string, content []byte) ([]symbols.Symbol, []symbols.Dependency, error) {
	if p.SymbolCache != nil {
		if cached, ok := p.SymbolCache.Get(checksum); ok {
			return cached.Symbols, cached.Deps, nil
		}
	}
	syms, deps, err := p.Parser.Parse(ctx, path, content)
	if err != nil {
		return nil, nil, err
	}
	if p.SymbolCache != nil {
		_ = p.SymbolCache.Set(checksum, ParseResult{Symbols: syms, Deps: deps})
	}
	return syms, deps, nil
}

// symbolExtraction runs the tree-sitter parser over every code file's
// content, attaching the resulting symbols/dependencies to its scanResult
// and persisting functions, methods, and the module row itself (spec.md
// §4.D).
func (p *Pipeline) symbolExtraction(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var (
		mu sync.Mutex
		pr PhaseReport
	)

	byPath := make(map[string]*scanResult, len(results))
	for _, r := range results {
		byPath[r.path] = r
	}

	errs := runConcurrent(ctx, results, opts.MaxConcurrentWorkers, func(ctx context.Context, r *scanResult) error {
		if r.category != types.FileCategoryCode && r.category != types.FileCategoryTest {
			mu.Lock()
			pr.Skipped++
			mu.Unlock()
			return nil
		}
		if p.Parser == nil {
			return nil
		}
		syms, deps, err := p.parseCached(ctx, r.path, r.checksum, r.content)
		if err != nil {
			return err
		}

		mu.Lock()
		r.symbols = syms
		r.deps = deps
		mu.Unlock()

		var exports []string
		for _, s := range syms {
			if s.Visibility == symbols.VisibilityPublic {
				exports = append(exports, s.ID)
			}
			if s.Kind != symbols.KindFunction && s.Kind != symbols.KindMethod {
				continue
			}
			name := functionName(s)
			fn := types.FunctionEntity{
				FilePath:  r.path,
				Name:      name,
				StartLine: s.StartLine,
				EndLine:   s.EndLine,
				Signature: s.Signature,
			}
			if err := p.Store.UpsertFunction(ctx, fn); err != nil {
				return err
			}
		}

		var moduleDeps []types.ModuleDependency
		for _, d := range deps {
			moduleDeps = append(moduleDeps, types.ModuleDependency{Path: d.RawPath, Package: d.Target})
		}
		if err := p.Store.UpsertModule(ctx, types.ModuleEntity{
			Path:         r.path,
			Exports:      exports,
			Dependencies: moduleDeps,
		}); err != nil {
			return err
		}

		mu.Lock()
		pr.FilesProcessed++
		mu.Unlock()
		return nil
	})

	pr.Errors = errs
	return pr, nil
}

// functionName strips the "func:"/"method:"/"iface_method:" ID prefix a
// Symbol carries, keeping only the bare name a FunctionEntity indexes on.
func functionName(s symbols.Symbol) string {
	if idx := strings.Index(s.ID, ":"); idx >= 0 {
		return s.ID[idx+1:]
	}
	return s.ID
}
