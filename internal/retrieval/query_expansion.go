// Package retrieval implements the Retrieval Engine (spec.md §4.G): query
// expansion, keyword scoring, hybrid multi-vector/keyword/structural
// scoring, and persona-weighted pack ranking. Grounded on the teacher's
// internal/retrieval/sparse.go SparseRetriever (keyword bag-of-matches
// idiom, config struct with defaults), generalized to the hybrid scorer
// and pack ranker the specification describes.
package retrieval

import "strings"

// synonyms is the bounded domain-synonym table (spec.md §4.G).
var synonyms = map[string][]string{
	"function":   {"method", "routine", "procedure"},
	"bug":        {"defect", "issue", "fault"},
	"error":      {"exception", "failure"},
	"config":     {"configuration", "settings"},
	"db":         {"database"},
	"auth":       {"authentication", "authorization"},
	"cache":      {"memoize"},
	"delete":     {"remove", "destroy"},
	"update":     {"modify", "change", "edit"},
	"create":     {"add", "new", "insert"},
}

// abbreviations expands well-known abbreviations to their long forms.
var abbreviations = map[string]string{
	"ast":  "abstract syntax tree",
	"api":  "application programming interface",
	"db":   "database",
	"auth": "authentication",
	"ctx":  "context",
	"cfg":  "configuration",
	"impl": "implementation",
	"repo": "repository",
	"lib":  "library",
	"util": "utility",
}

// ExpandQuery produces an expanded query string by appending synonyms and
// abbreviation expansions for each token, for use by both embedding and
// keyword scoring.
func ExpandQuery(query string) string {
	tokens := strings.Fields(strings.ToLower(query))
	var extra []string
	for _, tok := range tokens {
		clean := strings.Trim(tok, ".,!?():;\"'")
		if expanded, ok := abbreviations[clean]; ok {
			extra = append(extra, expanded)
		}
		if syns, ok := synonyms[clean]; ok {
			extra = append(extra, syns...)
		}
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}
