package query

import (
	"strings"

	"github.com/nateschmiedehaus/librarian-sub012/internal/retrieval"
)

// maxGuidanceItems is the per-list cap spec.md §4.H sets on checklist and
// risk lists after merging dynamic hints.
const maxGuidanceItems = 6

// Scenario is a named playbook the query layer attaches to a response:
// a checklist of things to verify and a list of risks to call out.
type Scenario struct {
	Name      string
	Checklist []string
	Risks     []string
}

// scenarios is the closed table spec.md §4.H names (incident_response,
// security_review, compliance, performance, bug_triage, change_impact,
// refactor, plus a general fallback).
var scenarios = map[string]Scenario{
	"incident_response": {
		Name:      "incident_response",
		Checklist: []string{"identify blast radius", "check recent deploys", "confirm rollback path"},
		Risks:     []string{"data loss", "cascading failure"},
	},
	"security_review": {
		Name:      "security_review",
		Checklist: []string{"check input validation", "check auth boundaries", "check secrets handling"},
		Risks:     []string{"privilege escalation", "injection"},
	},
	"compliance": {
		Name:      "compliance",
		Checklist: []string{"check audit logging", "check data retention", "check access controls"},
		Risks:     []string{"regulatory violation"},
	},
	"performance": {
		Name:      "performance",
		Checklist: []string{"check hot paths", "check allocation patterns", "check query plans"},
		Risks:     []string{"latency regression", "resource exhaustion"},
	},
	"bug_triage": {
		Name:      "bug_triage",
		Checklist: []string{"reproduce the failure", "check recent related changes", "check test coverage"},
		Risks:     []string{"incomplete fix", "regression elsewhere"},
	},
	"change_impact": {
		Name:      "change_impact",
		Checklist: []string{"list dependent modules", "check call sites", "check test coverage"},
		Risks:     []string{"breaking downstream consumers"},
	},
	"refactor": {
		Name:      "refactor",
		Checklist: []string{"check behavior parity", "check test coverage", "check call sites"},
		Risks:     []string{"silent behavior change"},
	},
	"general": {
		Name:      "general",
		Checklist: []string{"check related files", "check recent history"},
	},
}

// scenarioKeywords maps a keyword to the scenario it implies; checked
// before falling back to task-type selection, per spec.md §4.H
// ("keyword-first, task-type-second").
var scenarioKeywords = []struct {
	scenario string
	keywords []string
}{
	{"incident_response", []string{"incident", "outage", "down", "p0", "p1"}},
	{"security_review", []string{"security", "vulnerab", "exploit", "cve"}},
	{"compliance", []string{"compliance", "audit", "regulat", "gdpr", "soc2"}},
	{"performance", []string{"performance", "latency", "slow", "throughput"}},
	{"bug_triage", []string{"bug", "crash", "broken", "fails"}},
	{"change_impact", []string{"blast radius", "impact", "break", "downstream"}},
	{"refactor", []string{"refactor", "restructure", "clean up"}},
}

// taskTypeFallback selects a scenario by task type when no keyword
// matches (spec.md §4.H's "else a fallback by task-type").
var taskTypeFallback = map[retrieval.TaskType]string{
	retrieval.TaskBugFix:   "bug_triage",
	retrieval.TaskFeature:  "general",
	retrieval.TaskRefactor: "refactor",
	retrieval.TaskReview:   "change_impact",
	retrieval.TaskGuidance: "general",
}

// SelectScenario picks the scenario for a question: keyword match first,
// then task-type fallback, then "general".
func SelectScenario(question string, taskType retrieval.TaskType) Scenario {
	q := strings.ToLower(question)
	for _, sk := range scenarioKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(q, kw) {
				return scenarios[sk.scenario]
			}
		}
	}
	if name, ok := taskTypeFallback[taskType]; ok {
		return scenarios[name]
	}
	return scenarios["general"]
}

// MergeDynamicHints folds run-specific hints (related files, coverage
// gaps) into a scenario's checklist/risk lists, capping each at
// maxGuidanceItems (spec.md §4.H).
func MergeDynamicHints(base Scenario, relatedFileHints, coverageGapHints []string) Scenario {
	merged := Scenario{Name: base.Name}
	merged.Checklist = capList(append(append([]string{}, base.Checklist...), coverageGapHints...), maxGuidanceItems)
	merged.Risks = capList(append(append([]string{}, base.Risks...), relatedFileHints...), maxGuidanceItems)
	return merged
}

func capList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
