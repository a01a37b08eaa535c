package pipeline

import (
	"context"

	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
)

// verification re-reads every file and module row this run wrote and
// confirms the round trip, closing the loop on a run that might have
// been resumed mid-way (spec.md §4.D). It mutates nothing; a failed
// round trip is recorded as an error, not retried.
func (p *Pipeline) verification(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var pr PhaseReport
	var errs []string

	for _, r := range results {
		if _, err := p.Store.GetFile(ctx, r.path); err != nil {
			if err == store.ErrNotFound {
				pr.Skipped++
				continue
			}
			errs = append(errs, err.Error())
			continue
		}
		if _, err := p.Store.GetModule(ctx, r.path); err != nil {
			if err == store.ErrNotFound {
				pr.Skipped++
				continue
			}
			errs = append(errs, err.Error())
			continue
		}
		pr.FilesProcessed++
	}

	pr.Errors = errs
	return pr, nil
}
