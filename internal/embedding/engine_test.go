package embedding

import (
	"context"
	"testing"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAspectsFallsBackToHumanizedName(t *testing.T) {
	aspects := ExtractAspects(FileInput{Path: "internal/foo_bar.go"})
	assert.Equal(t, "foo bar", aspects[types.AspectPurpose])
}

func TestExtractAspectsTruncatesPurposeTo10KiB(t *testing.T) {
	big := make([]byte, 20*1024)
	for i := range big {
		big[i] = 'a'
	}
	aspects := ExtractAspects(FileInput{Path: "f.go", Purpose: string(big)})
	assert.LessOrEqual(t, len(aspects[types.AspectPurpose]), maxPurposeBytes)
}

func TestBuildMultiVectorProducesAllFiveAspects(t *testing.T) {
	svc := llmsvc.NewFakeEmbeddingService(8)
	mv, err := BuildMultiVector(context.Background(), svc, "fake-v1", FileInput{Path: "f.go", Code: "package f"})
	require.NoError(t, err)
	for _, aspect := range types.AllAspects {
		assert.Contains(t, mv.Vectors, aspect)
		assert.Len(t, mv.Vectors[aspect], 8)
	}
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestComputeMultiVectorSimilarityMissingAspectContributesZero(t *testing.T) {
	a := types.NewMultiVector("a.go", "m1")
	_ = a.Set(types.AspectPurpose, []float32{1, 0}, "p")
	b := types.NewMultiVector("b.go", "m1")
	_ = b.Set(types.AspectPurpose, []float32{1, 0}, "p")

	result := ComputeMultiVectorSimilarity(a, b, WeightsFor(QueryPurpose))
	assert.InDelta(t, 1.0, result.PerAspect[types.AspectPurpose], 1e-9)
	assert.Equal(t, 0.0, result.PerAspect[types.AspectSemantic])
}

func TestFindTopKOrdersDescendingWithLexicalTiebreak(t *testing.T) {
	query := []float32{1, 0}
	candidates := map[string][]float32{
		"b": {1, 0},
		"a": {1, 0},
		"c": {0, 1},
	}
	top := FindTopK(query, candidates, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].ID)
	assert.Equal(t, "b", top[1].ID)
}

func TestAnalyzeVectorRedundancyFlagsHighOverlap(t *testing.T) {
	samples := make([]*types.MultiVector, 0, 3)
	for i := 0; i < 3; i++ {
		mv := types.NewMultiVector("f.go", "m1")
		_ = mv.Set(types.AspectPurpose, []float32{1, 0}, "p")
		_ = mv.Set(types.AspectSemantic, []float32{1, 0}, "p")
		samples = append(samples, mv)
	}
	avg, verdict := AnalyzeVectorRedundancy(samples, 0.95)
	assert.InDelta(t, 1.0, avg, 1e-9)
	assert.Equal(t, DropRedundant, verdict)
}

func TestAnalyzeVectorRedundancyKeepsAllBelowThreshold(t *testing.T) {
	samples := make([]*types.MultiVector, 0, 2)
	for i := 0; i < 2; i++ {
		mv := types.NewMultiVector("f.go", "m1")
		_ = mv.Set(types.AspectPurpose, []float32{1, 0}, "p")
		_ = mv.Set(types.AspectSemantic, []float32{0, 1}, "s")
		samples = append(samples, mv)
	}
	_, verdict := AnalyzeVectorRedundancy(samples, 0.95)
	assert.Equal(t, KeepAll, verdict)
}
