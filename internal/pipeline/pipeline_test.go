package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/nateschmiedehaus/librarian-sub012/internal/pipeline/symbols"
	"github.com/nateschmiedehaus/librarian-sub012/internal/staleness"
	"github.com/nateschmiedehaus/librarian-sub012/internal/store"
)

func newTestPipeline(t *testing.T) (*Pipeline, *llmsvc.FakeFileSystem) {
	t.Helper()
	s, err := store.Open(":memory:", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	fs := llmsvc.NewFakeFileSystem()
	parser := symbols.NewParser()
	t.Cleanup(parser.Close)

	return &Pipeline{
		Store:      s,
		Staleness:  staleness.NewTracker(staleness.Config{}),
		Parser:     parser,
		Embeddings: llmsvc.NewFakeEmbeddingService(8),
		Chat:       llmsvc.NewFakeLlmService(),
		Governor:   llmsvc.NewFakeGovernor(0, 0),
		FS:         fs,
	}, fs
}

const widgetSource = `package sample

import "fmt"

type Widget struct {
	Name string
}

func (w Widget) Describe() string {
	return fmt.Sprintf("widget: %s", w.Name)
}

func NewWidget(name string) *Widget {
	return &Widget{Name: name}
}
`

func TestRunCompletesAllPhasesAndPopulatesStore(t *testing.T) {
	p, fs := newTestPipeline(t)
	fs.Files["widget.go"] = []byte(widgetSource)
	fs.Mtimes["widget.go"] = time.Now().Add(-48 * time.Hour)

	report, err := p.Run(context.Background(), []string{"widget.go"}, Options{})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Len(t, report.Phases, len(AllPhases))

	file, err := p.Store.GetFile(context.Background(), "widget.go")
	require.NoError(t, err)
	assert.Equal(t, "widget.go", file.Path)

	mod, err := p.Store.GetModule(context.Background(), "widget.go")
	require.NoError(t, err)
	assert.Contains(t, mod.Exports, "func:NewWidget")

	pack, err := p.Store.GetPack(context.Background(), "widget.go#module_context")
	require.NoError(t, err)
	assert.Equal(t, "widget.go", pack.TargetID)
}

func TestRunSkipsMissingFilesDuringStructuralScan(t *testing.T) {
	p, _ := newTestPipeline(t)

	report, err := p.Run(context.Background(), []string{"missing.go"}, Options{})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Phases[0].Skipped)
}

func TestRunResumesFromGivenPhase(t *testing.T) {
	p, fs := newTestPipeline(t)
	fs.Files["widget.go"] = []byte(widgetSource)
	fs.Mtimes["widget.go"] = time.Now()

	report, err := p.Run(context.Background(), []string{"widget.go"}, Options{ResumeFrom: PhaseEmbeddingGeneration})
	require.NoError(t, err)
	assert.Equal(t, len(AllPhases)-3, len(report.Phases))
	assert.Equal(t, PhaseEmbeddingGeneration, report.Phases[0].Phase)
}
