package pipeline

import (
	"context"
	"sync"

	"github.com/nateschmiedehaus/librarian-sub012/internal/pipeline/symbols"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// contextPackGeneration assembles one module_context pack per file and
// one function_context pack per extracted function/method (spec.md §4.D,
// §3 ContextPack). Packs seed the retrieval engine's candidate pool; they
// are deliberately coarse here (a later query-time rank/compose pass
// refines them) — this phase just guarantees every entity has a
// starting pack.
func (p *Pipeline) contextPackGeneration(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var pr PhaseReport
	var mu sync.Mutex

	errs := runConcurrent(ctx, results, opts.MaxConcurrentWorkers, func(ctx context.Context, r *scanResult) error {
		mod, err := p.Store.GetModule(ctx, r.path)
		if err != nil {
			return err
		}

		summary := mod.Purpose
		if summary == "" {
			summary = headOf(r.content, types.MaxSummaryLen)
		}

		var related []string
		for _, d := range r.deps {
			if d.RawPath != "" {
				related = append(related, d.RawPath)
			}
		}

		if err := p.Store.UpsertPack(ctx, types.ContextPack{
			PackID:     r.path + "#" + string(types.PackModuleContext),
			PackType:   types.PackModuleContext,
			TargetID:   r.path,
			Summary:    types.TruncateSummary(summary),
			KeyFacts:   firstN(mod.Exports, 5),
			RelatedFiles: related,
			Confidence: modConfidence(mod.Confidence),
		}); err != nil {
			return err
		}

		for _, s := range r.symbols {
			if s.Kind != symbols.KindFunction && s.Kind != symbols.KindMethod {
				continue
			}
			name := functionName(s)
			targetID := r.path + ":" + name
			if err := p.Store.UpsertPack(ctx, types.ContextPack{
				PackID:   targetID + "#" + string(types.PackFunctionContext),
				PackType: types.PackFunctionContext,
				TargetID: targetID,
				Summary:  types.TruncateSummary(s.Signature),
				KeyFacts: []string{s.Signature},
				CodeSnippets: []types.CodeSnippet{{
					FilePath:  r.path,
					StartLine: s.StartLine,
					EndLine:   s.EndLine,
					Content:   snippetOf(r.content, s.StartLine, s.EndLine),
				}},
				RelatedFiles: []string{r.path},
				Confidence:   0.5,
			}); err != nil {
				return err
			}
		}

		mu.Lock()
		pr.FilesProcessed++
		mu.Unlock()
		return nil
	})

	pr.Errors = errs
	return pr, nil
}

func modConfidence(c float64) float64 {
	if c <= 0 {
		return 0.3
	}
	return c
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func headOf(content []byte, max int) string {
	s := string(content)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func snippetOf(content []byte, startLine, endLine int) string {
	lines := splitLines(content)
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	if endLine < startLine || endLine > len(lines) {
		endLine = len(lines)
	}
	out := ""
	for i := startLine - 1; i < endLine; i++ {
		out += lines[i] + "\n"
	}
	return out
}

func splitLines(content []byte) []string {
	var lines []string
	start := 0
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, string(content[start:i]))
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, string(content[start:]))
	}
	return lines
}
