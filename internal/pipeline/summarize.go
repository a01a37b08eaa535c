package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
)

// summarization asks the configured LlmService for a one-line purpose
// string per file and stores it on the module row (spec.md §4.D). With
// no LlmService configured, every file is skipped rather than failed —
// summarization is an enrichment a caller can opt out of.
func (p *Pipeline) summarization(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var pr PhaseReport
	if p.Chat == nil {
		pr.Skipped = len(results)
		return pr, nil
	}

	var mu sync.Mutex
	errs := runConcurrent(ctx, results, opts.MaxConcurrentWorkers, func(ctx context.Context, r *scanResult) error {
		if err := p.checkBudget(ctx); err != nil {
			return err
		}

		if strings.TrimSpace(r.path) == "" {
			return apperrors.New(apperrors.CodePurposeInputInvalid, "module path is empty, cannot summarize purpose")
		}

		mod, err := p.Store.GetModule(ctx, r.path)
		if err != nil {
			return err
		}

		resp, err := p.Chat.Chat(ctx, llmsvc.ChatRequest{
			ModelID: opts.ModelID,
			Governor: p.Governor,
			Messages: []llmsvc.ChatMessage{
				{Role: "user", Content: summaryPrompt(r.path, mod.Exports)},
			},
		})
		if err != nil {
			if errors.Is(err, llmsvc.ErrProviderUnavailable) {
				return apperrors.New(apperrors.CodeProviderUnavailable, err.Error())
			}
			return err
		}

		mod.Purpose = strings.TrimSpace(resp.Content)
		mod.Confidence = 0.6
		if err := p.Store.UpsertModule(ctx, mod); err != nil {
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

func summaryPrompt(path string, exports []string) string {
	if len(exports) == 0 {
		return fmt.Sprintf("Summarize the purpose of %s in one sentence.", path)
	}
	return fmt.Sprintf("Summarize the purpose of %s in one sentence. It exports: %s.", path, strings.Join(exports, ", "))
}
