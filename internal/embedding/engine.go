// Package embedding implements the Embedding Core (spec.md §4.E): per-file
// extraction of five aspect inputs (purpose/semantic/structural/dependency/
// usage), driving an external EmbeddingService to produce multi-vectors,
// weighted similarity scoring, and redundancy analysis. Grounded on the
// teacher's internal/embedding EmbeddingEngine contract — CosineSimilarity
// and FindTopK are kept, generalized from a
// single vector per file to the five-aspect MultiVector the specification
// requires.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

// maxPurposeBytes caps the purpose aspect input at 10 KiB (spec.md §4.E).
const maxPurposeBytes = 10 * 1024

// FileInput is everything the extractor needs to build a file's aspect
// strings.
type FileInput struct {
	Path            string
	Code            string
	Purpose         string // LLM-extracted; empty triggers humanized fallback
	Description     string
	Symbols         []string
	Exports         []string
	PublicSignatures []string
	LocalImports    []string
	ExternalImports []string
	Frameworks      []string
	ASTPatterns     []string // e.g. "async-function", "exported-function"
	SizeBucket      string   // "small" | "medium" | "large"
}

// humanizeModuleName turns a path like "internal/foo_bar.go" into
// "foo bar" as a purpose-aspect fallback when no LLM purpose is available.
func humanizeModuleName(p string) string {
	base := p
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

func stripControlChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ExtractAspects builds the five aspect input strings for a file, per
// spec.md §4.E's definitions.
func ExtractAspects(in FileInput) map[types.Aspect]string {
	purpose := in.Purpose
	if strings.TrimSpace(purpose) == "" {
		purpose = humanizeModuleName(in.Path)
	}
	purpose = truncateBytes(stripControlChars(purpose), maxPurposeBytes)

	codeHead := in.Code
	if len(codeHead) > 500 {
		codeHead = codeHead[:500]
	}
	semantic := fmt.Sprintf("%s\n%s\n%s\n%s", purpose, in.Description, strings.Join(in.Symbols, ", "), codeHead)

	structural := fmt.Sprintf("patterns=%s size=%s", strings.Join(in.ASTPatterns, ","), in.SizeBucket)

	dependency := fmt.Sprintf("local=%s external=%s frameworks=%s",
		strings.Join(in.LocalImports, ","), strings.Join(in.ExternalImports, ","), strings.Join(in.Frameworks, ","))

	sigs := in.PublicSignatures
	if len(sigs) > 10 {
		sigs = sigs[:10]
	}
	usage := fmt.Sprintf("exports=%s signatures=%s", strings.Join(in.Exports, ","), strings.Join(sigs, "; "))

	return map[types.Aspect]string{
		types.AspectPurpose:    purpose,
		types.AspectSemantic:   semantic,
		types.AspectStructural: structural,
		types.AspectDependency: dependency,
		types.AspectUsage:      usage,
	}
}

// BuildMultiVector extracts aspect inputs for in and embeds each through
// svc, returning the assembled MultiVector.
func BuildMultiVector(ctx context.Context, svc llmsvc.EmbeddingService, modelID string, in FileInput) (*types.MultiVector, error) {
	inputs := ExtractAspects(in)
	mv := types.NewMultiVector(in.Path, modelID)
	for _, aspect := range types.AllAspects {
		text := inputs[aspect]
		vec, err := svc.Embed(ctx, text, modelID)
		if err != nil {
			return nil, fmt.Errorf("embedding aspect %s for %s: %w", aspect, in.Path, err)
		}
		if err := mv.Set(aspect, vec, text); err != nil {
			return nil, err
		}
	}
	return mv, nil
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors, or 0 if either is empty or lengths mismatch.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// QueryType selects a per-aspect weight table for similarity scoring.
type QueryType string

const (
	QueryPurpose    QueryType = "purpose-query"
	QuerySemantic   QueryType = "semantic-query"
	QueryStructural QueryType = "structural-query"
	QueryDependency QueryType = "dependency-query"
	QueryUsage      QueryType = "usage-query"
)

// AspectWeights maps aspect to weight for one query type.
type AspectWeights map[types.Aspect]float64

// defaultWeightTable is the small enumerated table spec.md §4.E describes,
// keyed by queryType.
var defaultWeightTable = map[QueryType]AspectWeights{
	QueryPurpose: {
		types.AspectPurpose:    0.70,
		types.AspectSemantic:   0.15,
		types.AspectStructural: 0.05,
		types.AspectDependency: 0.05,
		types.AspectUsage:      0.05,
	},
	QuerySemantic: {
		types.AspectPurpose:    0.20,
		types.AspectSemantic:   0.55,
		types.AspectStructural: 0.10,
		types.AspectDependency: 0.05,
		types.AspectUsage:      0.10,
	},
	QueryStructural: {
		types.AspectPurpose:    0.05,
		types.AspectSemantic:   0.10,
		types.AspectStructural: 0.65,
		types.AspectDependency: 0.10,
		types.AspectUsage:      0.10,
	},
	QueryDependency: {
		types.AspectPurpose:    0.05,
		types.AspectSemantic:   0.10,
		types.AspectStructural: 0.10,
		types.AspectDependency: 0.65,
		types.AspectUsage:      0.10,
	},
	QueryUsage: {
		types.AspectPurpose:    0.05,
		types.AspectSemantic:   0.15,
		types.AspectStructural: 0.05,
		types.AspectDependency: 0.05,
		types.AspectUsage:      0.70,
	},
}

// WeightsFor returns the weight table for qt, falling back to the
// semantic-query table for unknown query types.
func WeightsFor(qt QueryType) AspectWeights {
	if w, ok := defaultWeightTable[qt]; ok {
		return w
	}
	return defaultWeightTable[QuerySemantic]
}

// SimilarityResult is the per-aspect and weighted-total similarity
// between two multi-vectors.
type SimilarityResult struct {
	PerAspect     map[types.Aspect]float64
	Total         float64
	MatchedAspects []types.Aspect // per-aspect score > 0.5
}

// ComputeMultiVectorSimilarity returns per-aspect cosine scores and a
// weighted total. A missing aspect on either side contributes 0.
func ComputeMultiVectorSimilarity(a, b *types.MultiVector, weights AspectWeights) SimilarityResult {
	result := SimilarityResult{PerAspect: make(map[types.Aspect]float64)}
	var total float64
	for _, aspect := range types.AllAspects {
		va, okA := a.Vectors[aspect]
		vb, okB := b.Vectors[aspect]
		var score float64
		if okA && okB {
			score = CosineSimilarity(va, vb)
		}
		result.PerAspect[aspect] = score
		total += score * weights[aspect]
		if score > 0.5 {
			result.MatchedAspects = append(result.MatchedAspects, aspect)
		}
	}
	result.Total = total
	return result
}

// FindTopK returns the k highest-scoring candidates by cosine similarity
// to query, descending, ties broken by lexical id order.
func FindTopK(query []float32, candidates map[string][]float32, k int) []SimpleMatch {
	matches := make([]SimpleMatch, 0, len(candidates))
	for id, vec := range candidates {
		matches = append(matches, SimpleMatch{ID: id, Score: CosineSimilarity(query, vec)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// SimpleMatch is one scored candidate from FindTopK.
type SimpleMatch struct {
	ID    string
	Score float64
}

// RedundancyVerdict is the outcome of analyzing a set of vectors for
// aspect redundancy.
type RedundancyVerdict string

const (
	KeepAll          RedundancyVerdict = "keep_all"
	DropRedundant    RedundancyVerdict = "drop_redundant"
	Consolidate      RedundancyVerdict = "consolidate"
)

// AnalyzeVectorRedundancy computes the average pairwise cosine similarity
// between the purpose and semantic aspects across samples and flags a
// verdict when it exceeds threshold (spec.md §4.E).
func AnalyzeVectorRedundancy(samples []*types.MultiVector, threshold float64) (float64, RedundancyVerdict) {
	if threshold <= 0 {
		threshold = 0.95
	}
	if len(samples) < 2 {
		return 0, KeepAll
	}
	var sum float64
	var count int
	for i := 0; i < len(samples); i++ {
		purposeI, okPI := samples[i].Vectors[types.AspectPurpose]
		semanticI, okSI := samples[i].Vectors[types.AspectSemantic]
		if !okPI || !okSI {
			continue
		}
		sum += CosineSimilarity(purposeI, semanticI)
		count++
	}
	if count == 0 {
		return 0, KeepAll
	}
	avg := sum / float64(count)
	if avg < threshold {
		return avg, KeepAll
	}
	if avg > 0.99 {
		return avg, DropRedundant
	}
	return avg, Consolidate
}
