package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
)

func TestSummarizationWrapsProviderUnavailable(t *testing.T) {
	p, fs := newTestPipeline(t)
	fs.Files["widget.go"] = []byte(widgetSource)
	fs.Mtimes["widget.go"] = time.Now().Add(-48 * time.Hour)
	p.Chat = &llmsvc.FakeLlmService{Unavailable: true}

	report, err := p.Run(context.Background(), []string{"widget.go"}, Options{})
	require.NoError(t, err)

	var summaryReport PhaseReport
	for _, ph := range report.Phases {
		if ph.Phase == PhaseSummarization {
			summaryReport = ph
		}
	}
	require.Len(t, summaryReport.Errors, 1)
	assert.Contains(t, summaryReport.Errors[0], "provider_unavailable")
}

func TestSummarizationSkipsWithoutChatService(t *testing.T) {
	p, fs := newTestPipeline(t)
	fs.Files["widget.go"] = []byte(widgetSource)
	fs.Mtimes["widget.go"] = time.Now().Add(-48 * time.Hour)
	p.Chat = nil

	report, err := p.Run(context.Background(), []string{"widget.go"}, Options{})
	require.NoError(t, err)

	for _, ph := range report.Phases {
		if ph.Phase == PhaseSummarization {
			assert.Equal(t, 1, ph.Skipped)
		}
	}
}
