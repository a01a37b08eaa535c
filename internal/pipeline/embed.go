package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/nateschmiedehaus/librarian-sub012/internal/embedding"
)

// embeddingGeneration computes the five-aspect multi-vector for every
// scanned file and persists it (spec.md §4.E). Files with no configured
// EmbeddingService are skipped, not failed — embeddings are an
// enrichment, not a hard dependency of indexing.
func (p *Pipeline) embeddingGeneration(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var pr PhaseReport
	if p.Embeddings == nil {
		pr.Skipped = len(results)
		return pr, nil
	}

	var mu sync.Mutex
	errs := runConcurrent(ctx, results, opts.MaxConcurrentWorkers, func(ctx context.Context, r *scanResult) error {
		in := embedding.FileInput{
			Path:        r.path,
			Code:        string(r.content),
			Symbols:     symbolNames(r),
			Exports:     exportedNames(r),
			LocalImports:    localImports(r),
			ExternalImports: externalImports(r),
			SizeBucket:  sizeBucket(len(r.content)),
		}
		mv, err := embedding.BuildMultiVector(ctx, p.Embeddings, opts.ModelID, in)
		if err != nil {
			return err
		}
		if err := p.Store.SaveMultiVector(ctx, mv); err != nil {
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

func symbolNames(r *scanResult) []string {
	names := make([]string, 0, len(r.symbols))
	for _, s := range r.symbols {
		names = append(names, functionName(s))
	}
	return names
}

func exportedNames(r *scanResult) []string {
	var names []string
	for _, s := range r.symbols {
		if string(s.Visibility) == "public" {
			names = append(names, functionName(s))
		}
	}
	return names
}

func localImports(r *scanResult) []string {
	var imports []string
	for _, d := range r.deps {
		if strings.HasPrefix(d.RawPath, ".") {
			imports = append(imports, d.RawPath)
		}
	}
	return imports
}

func externalImports(r *scanResult) []string {
	var imports []string
	for _, d := range r.deps {
		if !strings.HasPrefix(d.RawPath, ".") {
			imports = append(imports, d.Target)
		}
	}
	return imports
}

func sizeBucket(n int) string {
	switch {
	case n < 2048:
		return "small"
	case n < 16384:
		return "medium"
	default:
		return "large"
	}
}
