package query

import (
	"strings"

	"github.com/nateschmiedehaus/librarian-sub012/internal/retrieval"
)

// taskKeywords maps a task type to the keywords whose presence in a
// question implies it. Checked in declaration order, first match wins,
// matching the teacher's keyword-first classification idiom.
var taskKeywords = []struct {
	taskType retrieval.TaskType
	keywords []string
}{
	{retrieval.TaskBugFix, []string{"bug", "fix", "broken", "crash", "error", "fails", "failing", "regression"}},
	{retrieval.TaskReview, []string{"review", "pull request", " pr ", "approve"}},
	{retrieval.TaskRefactor, []string{"refactor", "clean up", "restructure", "simplify", "rewrite"}},
	{retrieval.TaskGuidance, []string{"how does", "how do", "why does", "what is", "explain", "understand", "overview"}},
}

// ClassifyTaskType infers a TaskType from a free-text question, defaulting
// to TaskFeature when nothing matches (spec.md §4.H intent classification).
func ClassifyTaskType(question string) retrieval.TaskType {
	q := " " + strings.ToLower(question) + " "
	for _, tk := range taskKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				return tk.taskType
			}
		}
	}
	return retrieval.TaskFeature
}

// depthKeywords maps a requested depth to the keywords implying it,
// checked from most to least specific.
var depthKeywords = []struct {
	depth    retrieval.Depth
	keywords []string
}{
	{retrieval.DepthL3, []string{"deep dive", "thorough", "comprehensive", "in depth", "in-depth"}},
	{retrieval.DepthL2, []string{"detailed", "full context", "all the context"}},
	{retrieval.DepthL0, []string{"quick", "briefly", "short answer", "one line", "tl;dr"}},
}

// InferDepth infers a requested Depth from a free-text question, defaulting
// to DepthL1 (the spec's default maxPacks tier) when nothing matches.
func InferDepth(question string) retrieval.Depth {
	q := strings.ToLower(question)
	for _, dk := range depthKeywords {
		for _, kw := range dk.keywords {
			if strings.Contains(q, kw) {
				return dk.depth
			}
		}
	}
	return retrieval.DepthL1
}
