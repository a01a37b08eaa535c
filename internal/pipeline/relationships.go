package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/graph"
	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// relativeImportCandidates guesses the file(s) a relative import ("./x",
// "../y") could resolve to: the bare joined path first, then that path with
// the source file's own extension, then common index/package-init filenames.
func relativeImportCandidates(fromPath, rawPath string) []string {
	base := filepath.Clean(filepath.Join(filepath.Dir(fromPath), rawPath))
	ext := filepath.Ext(fromPath)
	candidates := []string{base}
	if ext != "" {
		candidates = append(candidates, base+ext)
	}
	candidates = append(candidates,
		base+"/index.js", base+"/index.ts", base+"/__init__.py",
	)
	return candidates
}

// relationshipDiscovery links files to the other files they import, and,
// when a Git collaborator is configured, links files that tend to change
// together (spec.md §4.D, §4.F). Import resolution here is deliberately
// best-effort: full module-resolution semantics per language (go.mod
// replace directives, node_modules, PYTHONPATH) are out of scope. A
// relative import resolves to its first candidate file scanned in this
// run; any other import resolves to the first file (in path order) of a
// scanned directory named like the import's last path segment. When
// several directories share that name, which one is used is not defined.
func (p *Pipeline) relationshipDiscovery(ctx context.Context, results []*scanResult, opts Options) (PhaseReport, error) {
	var pr PhaseReport

	byPath := make(map[string]bool, len(results))
	dirFiles := make(map[string][]string)
	for _, r := range results {
		byPath[r.path] = true
		dir := filepath.Dir(r.path)
		dirFiles[dir] = append(dirFiles[dir], r.path)
	}
	for dir := range dirFiles {
		sort.Strings(dirFiles[dir])
	}

	var errs []string
	now := time.Now()

	for _, r := range results {
		for _, dep := range r.deps {
			target, ok := resolveDependencyTarget(r.path, dep.RawPath, byPath, dirFiles)
			if !ok || target == r.path {
				continue
			}
			err := p.Store.AddEdge(ctx, types.Edge{
				FromID:     r.path,
				ToID:       target,
				EdgeType:   types.EdgeImports,
				SourceFile: r.path,
				Confidence: 0.9,
				ComputedAt: now,
			})
			if err != nil && err != store.ErrUnknownEndpoint {
				errs = append(errs, err.Error())
				continue
			}
			pr.FilesProcessed++
		}
	}

	if p.Git != nil {
		edges, err := graph.BuildCoChangeGraph(ctx, p.Git, 200, 20)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			for _, e := range edges {
				if !byPath[e.FileA] || !byPath[e.FileB] {
					continue
				}
				if aerr := p.Store.AddEdge(ctx, types.Edge{
					FromID:     e.FileA,
					ToID:       e.FileB,
					EdgeType:   types.EdgeSimilarTo,
					SourceFile: e.FileA,
					Weight:     e.Strength,
					Confidence: e.Strength,
					ComputedAt: now,
				}); aerr != nil && aerr != store.ErrUnknownEndpoint {
					errs = append(errs, aerr.Error())
					continue
				}
				pr.FilesProcessed++
			}
		}
	}

	pr.Errors = errs
	return pr, nil
}

func resolveDependencyTarget(fromPath, rawPath string, known map[string]bool, dirFiles map[string][]string) (string, bool) {
	if rawPath == "" {
		return "", false
	}
	if strings.HasPrefix(rawPath, ".") {
		for _, c := range relativeImportCandidates(fromPath, rawPath) {
			if known[c] {
				return c, true
			}
		}
		return "", false
	}

	segments := strings.Split(strings.TrimSuffix(rawPath, "/"), "/")
	last := segments[len(segments)-1]
	for dir, files := range dirFiles {
		if filepath.Base(dir) != last {
			continue
		}
		for _, f := range files {
			if f != fromPath {
				return f, true
			}
		}
	}
	return "", false
}
