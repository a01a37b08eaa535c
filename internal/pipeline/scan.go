package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/staleness"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// categorize classifies a file by its path, per spec.md §4.A's category
// vocabulary. Test files are recognized by a "_test" or "test_" marker
// anywhere in the base name, or a ".test.<ext>" suffix (covering Go,
// Python, and JS/TS conventions).
func categorize(path string) types.FileCategory {
	base := strings.ToLower(filepath.Base(path))
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case strings.Contains(base, "_test") || strings.Contains(base, "test_") || strings.HasSuffix(base, ".test"+ext):
		return types.FileCategoryTest
	case ext == ".yaml" || ext == ".yml" || ext == ".json" || ext == ".toml" || ext == ".ini":
		return types.FileCategoryConfig
	case ext == ".md" || ext == ".txt" || ext == ".rst":
		return types.FileCategoryDoc
	default:
		return types.FileCategoryCode
	}
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

// structuralScan reads every workspace file, classifies its staleness
// tier, computes its checksum, and records a FileEntity row — the first
// indexing phase, grounded on the teacher's internal/world file-walk scan
// (spec.md §4.A, §4.C, §4.D).
func (p *Pipeline) structuralScan(ctx context.Context, workspaceFiles []string, opts Options) ([]*scanResult, PhaseReport, error) {
	var (
		mu      sync.Mutex
		out     []*scanResult
		pr      PhaseReport
		errs    []string
	)

	work := func(ctx context.Context, path string) error {
		info, err := p.FS.Stat(path)
		exists := err == nil
		var modTime time.Time
		if exists {
			modTime = info.ModTime
		}
		classified := staleness.Classification{Path: path, Durability: staleness.Missing}
		if p.Staleness != nil {
			classified = p.Staleness.Classify(staleness.FileStat{Path: path, ModTime: modTime, Exists: exists}, time.Now())
		}

		if !exists {
			mu.Lock()
			pr.Skipped++
			mu.Unlock()
			return nil
		}

		content, err := p.FS.ReadFile(path)
		if err != nil {
			return err
		}
		sum := checksum(content)
		category := categorize(path)

		if err := p.Store.UpsertFile(ctx, types.FileEntity{
			Path:         path,
			Category:     category,
			Checksum:     sum,
			LastIndexed:  time.Now(),
			LastModified: modTime,
			ContentRef:   sum,
		}); err != nil {
			return err
		}

		mu.Lock()
		out = append(out, &scanResult{path: path, content: content, category: category, checksum: sum, classified: classified})
		pr.FilesProcessed++
		mu.Unlock()
		return nil
	}

	errs = runConcurrent(ctx, workspaceFiles, opts.MaxConcurrentWorkers, work)
	pr.Errors = errs
	return out, pr, nil
}
