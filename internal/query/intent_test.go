package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nateschmiedehaus/librarian-sub012/internal/retrieval"
)

func TestClassifyTaskType(t *testing.T) {
	cases := []struct {
		question string
		want     retrieval.TaskType
	}{
		{"why is this test failing after the merge", retrieval.TaskBugFix},
		{"can you review this pull request", retrieval.TaskReview},
		{"I want to refactor the auth module", retrieval.TaskRefactor},
		{"how does the scheduler pick a worker", retrieval.TaskGuidance},
		{"add support for CSV export", retrieval.TaskFeature},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyTaskType(c.question), c.question)
	}
}

func TestInferDepth(t *testing.T) {
	cases := []struct {
		question string
		want     retrieval.Depth
	}{
		{"give me a thorough, comprehensive deep dive", retrieval.DepthL3},
		{"I need the full context, a detailed answer", retrieval.DepthL2},
		{"just a quick tl;dr please", retrieval.DepthL0},
		{"what does this function do", retrieval.DepthL1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, InferDepth(c.question), c.question)
	}
}
