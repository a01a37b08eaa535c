package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

func seedPipeline(t *testing.T) (*Pipeline, llmsvc.EmbeddingService) {
	t.Helper()
	st, err := store.Open(":memory:", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	emb := llmsvc.NewFakeEmbeddingService(8)
	const modelID = "fake-embed-v1"
	const path = "internal/widget/widget.go"

	require.NoError(t, st.UpsertFile(context.Background(), types.FileEntity{
		Path: path, Category: types.FileCategoryCode, Checksum: "abc123",
	}))
	require.NoError(t, st.UpsertModule(context.Background(), types.ModuleEntity{
		Path: path, Purpose: "renders widgets", Exports: []string{"func:" + path + ":New"},
	}))

	vec, err := emb.Embed(context.Background(), "how does the widget renderer work", modelID)
	require.NoError(t, err)
	mv := types.NewMultiVector(path, modelID)
	mv.Vectors[types.AspectSemantic] = vec
	require.NoError(t, st.SaveMultiVector(context.Background(), mv))

	require.NoError(t, st.UpsertPack(context.Background(), types.ContextPack{
		PackID:   path + "#" + string(types.PackModuleContext),
		PackType: types.PackModuleContext,
		TargetID: path,
		Summary:  "widget module overview",
	}))

	const depPath = "internal/widget/render.go"
	require.NoError(t, st.UpsertFile(context.Background(), types.FileEntity{
		Path: depPath, Category: types.FileCategoryCode, Checksum: "def456",
	}))
	require.NoError(t, st.AddEdge(context.Background(), types.Edge{
		FromID: path, ToID: depPath, EdgeType: types.EdgeDependsOn, Weight: 1, Confidence: 1,
	}))
	require.NoError(t, st.UpsertPack(context.Background(), types.ContextPack{
		PackID:   depPath + "#" + string(types.PackModuleContext),
		PackType: types.PackModuleContext,
		TargetID: depPath,
		Summary:  "render helper overview",
	}))

	p := NewPipeline(st, emb, modelID, ManagerConfig{})
	return p, emb
}

func TestAskReturnsRankedPacksAndStageReports(t *testing.T) {
	p, _ := seedPipeline(t)

	result, err := p.Ask(context.Background(), "", "how does the widget renderer work", AskOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.Packs)
	assert.Len(t, result.Stages, len(AllStages))
	for _, st := range result.Stages {
		assert.NotEqual(t, StatusSkipped, st.Status, st.Stage)
	}
}

func TestAskContinuesExistingSession(t *testing.T) {
	p, _ := seedPipeline(t)

	first, err := p.Ask(context.Background(), "", "how does the widget renderer work", AskOptions{})
	require.NoError(t, err)

	second, err := p.Ask(context.Background(), first.SessionID, "why is the widget crashing", AskOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	snap, err := p.Sessions.Snapshot(first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"how does the widget renderer work", "why is the widget crashing"}, snap.History)
	assert.Equal(t, "bug_triage", second.Scenario.Name)
}

func TestAskPropagatesSessionStartFailure(t *testing.T) {
	p, _ := seedPipeline(t)
	p.Sessions = NewManager(ManagerConfig{MaxSessions: 1})
	_, err := p.Sessions.Start(time.Now())
	require.NoError(t, err)

	_, err = p.Ask(context.Background(), "", "anything", AskOptions{})
	require.Error(t, err)
}
