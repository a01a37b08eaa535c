package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nateschmiedehaus/librarian-sub012/internal/retrieval"
)

func TestSelectScenarioKeywordMatchWinsOverTaskType(t *testing.T) {
	s := SelectScenario("there's a live outage, prod is down", retrieval.TaskFeature)
	assert.Equal(t, "incident_response", s.Name)
}

func TestSelectScenarioFallsBackToTaskType(t *testing.T) {
	s := SelectScenario("add a new button to the settings page", retrieval.TaskRefactor)
	assert.Equal(t, "refactor", s.Name)
}

func TestSelectScenarioDefaultsToGeneral(t *testing.T) {
	s := SelectScenario("add a new button to the settings page", retrieval.TaskFeature)
	assert.Equal(t, "general", s.Name)
}

func TestMergeDynamicHintsCapsAtMax(t *testing.T) {
	base := Scenario{
		Name:      "bug_triage",
		Checklist: []string{"a", "b", "c"},
		Risks:     []string{"x", "y"},
	}
	merged := MergeDynamicHints(base, []string{"r1", "r2", "r3", "r4"}, []string{"g1", "g2", "g3", "g4"})
	assert.LessOrEqual(t, len(merged.Checklist), maxGuidanceItems)
	assert.LessOrEqual(t, len(merged.Risks), maxGuidanceItems)
	assert.Equal(t, "bug_triage", merged.Name)
}
