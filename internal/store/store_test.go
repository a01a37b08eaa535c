package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := types.FileEntity{Path: "internal/store/store.go", Category: types.FileCategoryCode, Checksum: "abc123", LastModified: time.Now()}
	require.NoError(t, s.UpsertFile(ctx, f))

	got, err := s.GetFile(ctx, f.Path)
	require.NoError(t, err)
	assert.Equal(t, f.Path, got.Path)
	assert.Equal(t, f.Checksum, got.Checksum)
}

func TestGetFileMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFile(context.Background(), "nope.go")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertFunctionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertFile(ctx, types.FileEntity{Path: "a.go"}))
	fn := types.FunctionEntity{FilePath: "a.go", Name: "Foo", Signature: "func Foo()", Confidence: 0.8}
	require.NoError(t, s.UpsertFunction(ctx, fn))

	got, err := s.GetFunction(ctx, fn.TargetID())
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.Name)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestRecordFunctionOutcomeIncrementsCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertFile(ctx, types.FileEntity{Path: "a.go"}))
	fn := types.FunctionEntity{FilePath: "a.go", Name: "Foo"}
	require.NoError(t, s.UpsertFunction(ctx, fn))
	require.NoError(t, s.RecordFunctionOutcome(ctx, fn.TargetID(), true, time.Now()))

	got, err := s.GetFunction(ctx, fn.TargetID())
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.AccessCount)
	assert.EqualValues(t, 1, got.SuccessCount)
}

func TestUpsertModuleReplacesDependencies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := types.ModuleEntity{Path: "internal/store", Exports: []string{"Store", "Open"}, Dependencies: []types.ModuleDependency{{Path: "database/sql", Package: "sql"}}}
	require.NoError(t, s.UpsertModule(ctx, m))

	got, err := s.GetModule(ctx, m.Path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Store", "Open"}, got.Exports)
	require.Len(t, got.Dependencies, 1)

	m.Dependencies = nil
	require.NoError(t, s.UpsertModule(ctx, m))
	got, err = s.GetModule(ctx, m.Path)
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)
}

func TestAddEdgeRejectsUnknownEndpoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertFile(ctx, types.FileEntity{Path: "a.go"}))

	err := s.AddEdge(ctx, types.Edge{FromID: "a.go", ToID: "missing.go", EdgeType: types.EdgeImports})
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestAddEdgeAndQueryBothDirections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertFile(ctx, types.FileEntity{Path: "a.go"}))
	require.NoError(t, s.UpsertFile(ctx, types.FileEntity{Path: "b.go"}))
	require.NoError(t, s.AddEdge(ctx, types.Edge{FromID: "a.go", ToID: "b.go", EdgeType: types.EdgeImports, Weight: 1, ComputedAt: time.Now()}))

	from, err := s.EdgesFrom(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, from, 1)

	to, err := s.EdgesTo(ctx, "b.go")
	require.NoError(t, err)
	require.Len(t, to, 1)

	all, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertPackRoundTripAndVersionBump(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := types.ContextPack{PackID: "p1", PackType: types.PackFunctionContext, TargetID: "a.go:Foo", Summary: "does a thing", KeyFacts: []string{"fact1"}, Confidence: 0.5, Version: 1}
	require.NoError(t, s.UpsertPack(ctx, p))

	got, err := s.GetPack(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.PackFunctionContext, got.PackType)
	assert.Equal(t, []string{"fact1"}, got.KeyFacts)

	p.Summary = "updated"
	require.NoError(t, s.UpsertPack(ctx, p))
	got, err = s.GetPack(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Summary)
	assert.Equal(t, 2, got.Version)
}

func TestRecordPackOutcomeUpdatesCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := types.ContextPack{PackID: "p1", PackType: types.PackFunctionContext, TargetID: "a.go"}
	require.NoError(t, s.UpsertPack(ctx, p))
	require.NoError(t, s.RecordPackOutcome(ctx, "p1", false))

	got, err := s.GetPack(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.FailureCount)
	assert.Equal(t, types.OutcomeFailure, got.LastOutcome)
}

func TestSaveAndLoadMultiVectorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mv := types.NewMultiVector("a.go", "model-1")
	require.NoError(t, mv.Set(types.AspectPurpose, []float32{1, 0, 0}, "purpose text"))
	require.NoError(t, mv.Set(types.AspectSemantic, []float32{0, 1, 0}, "semantic text"))
	mv.LastUpdated = time.Now()

	require.NoError(t, s.SaveMultiVector(ctx, mv))
	got, err := s.LoadMultiVector(ctx, "a.go", "model-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vectors[types.AspectPurpose])
	assert.Equal(t, []float32{0, 1, 0}, got.Vectors[types.AspectSemantic])
}

func TestSearchSimilarRanksByCosine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := types.NewMultiVector("a.go", "model-1")
	require.NoError(t, a.Set(types.AspectPurpose, []float32{1, 0}, "x"))
	require.NoError(t, s.SaveMultiVector(ctx, a))

	b := types.NewMultiVector("b.go", "model-1")
	require.NoError(t, b.Set(types.AspectPurpose, []float32{0, 1}, "y"))
	require.NoError(t, s.SaveMultiVector(ctx, b))

	matches, err := s.SearchSimilar(ctx, types.AspectPurpose, "model-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a.go", matches[0].FilePath)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestAppendAndQueryEvidence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e, err := s.AppendEvidence(ctx, types.EvidenceEntry{
		Kind:       types.EvidenceClaim,
		Payload:    "claim-payload",
		Timestamp:  time.Now(),
		Confidence: types.Deterministic(1.0, "test"),
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	results, err := s.QueryEvidence(ctx, []types.EvidenceKind{types.EvidenceClaim})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "claim-payload", results[0].Payload)
}

func TestRecordAndCountOutcomes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordOutcome(ctx, "p1", false, "wrong_approach", time.Now()))
	require.NoError(t, s.RecordOutcome(ctx, "p1", true, "", time.Now()))

	n, err := s.TotalFailures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.OutcomesForPack(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.WithTransaction(ctx, nil, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `INSERT INTO files (path, category, durability, checksum, size_bytes, last_modified, version)
			VALUES ('x.go', 'code', 'stable', 'h', 0, 0, 1)`)
		return execErr
	})
	require.NoError(t, err)

	_, err = s.GetFile(ctx, "x.go")
	assert.NoError(t, err)
}

func TestWithTransactionFailsAfterExhaustingResolver(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(attempt int, err error) Resolution { return ResolveFail }, func(tx *sql.Tx) error {
		return boom
	})
	assert.Error(t, err)
	assert.Equal(t, apperrors.CodeTransactionConflict, apperrors.CodeOf(err))
}
