package retrieval

import "strings"

// Candidate is one file-shaped retrieval target scored against a query.
type Candidate struct {
	TargetID      string
	FilePath      string
	ModuleName    string
	FunctionNames []string
	ContentHead   string // leading ~1KB of file content
}

const contentSliceBytes = 1024

// KeywordScore weights matches across filename (×3), module name (×2),
// function/export names (×1), and a leading 1KB content slice (×0.5),
// normalized by a padded denominator and clamped to [0,1] (spec.md §4.G).
func KeywordScore(query string, c Candidate) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	filename := strings.ToLower(c.FilePath)
	module := strings.ToLower(c.ModuleName)
	content := strings.ToLower(c.ContentHead)
	if len(content) > contentSliceBytes {
		content = content[:contentSliceBytes]
	}
	funcNames := make([]string, len(c.FunctionNames))
	for i, f := range c.FunctionNames {
		funcNames[i] = strings.ToLower(f)
	}

	var raw float64
	for _, term := range terms {
		if strings.Contains(filename, term) {
			raw += 3
		}
		if strings.Contains(module, term) {
			raw += 2
		}
		for _, f := range funcNames {
			if strings.Contains(f, term) {
				raw += 1
				break
			}
		}
		if strings.Contains(content, term) {
			raw += 0.5
		}
	}

	// Padded denominator: max possible weight per term (3+2+1+0.5=6.5)
	// times term count, plus a small constant to avoid inflating short
	// queries to a perfect 1.0 on a single strong hit.
	denom := 6.5*float64(len(terms)) + 1
	score := raw / denom
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
