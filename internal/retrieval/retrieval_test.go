package retrieval

import (
	"testing"

	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExpandQueryAddsAbbreviationAndSynonyms(t *testing.T) {
	expanded := ExpandQuery("fix ast bug")
	assert.Contains(t, expanded, "abstract syntax tree")
	assert.Contains(t, expanded, "defect")
}

func TestExpandQueryNoOpWithoutMatches(t *testing.T) {
	expanded := ExpandQuery("xyzzy plugh")
	assert.Equal(t, "xyzzy plugh", expanded)
}

func TestKeywordScoreWeightsFilenameHighest(t *testing.T) {
	filenameHit := Candidate{FilePath: "internal/auth/login.go"}
	contentHit := Candidate{FilePath: "internal/other/file.go", ContentHead: "login logic here"}
	assert.Greater(t, KeywordScore("login", filenameHit), KeywordScore("login", contentHit))
}

func TestKeywordScoreClampedToUnitInterval(t *testing.T) {
	c := Candidate{FilePath: "login.go", ModuleName: "login", FunctionNames: []string{"login"}, ContentHead: "login login login"}
	score := KeywordScore("login", c)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestStructuralBoostCapsAtMax(t *testing.T) {
	boost := StructuralBoost("x.go", "modX",
		map[string]bool{"x.go": true},
		map[string]bool{"x.go": true},
		map[string]bool{"modX": true})
	assert.LessOrEqual(t, boost, maxStructuralBoost)
}

func TestHybridScoreDefaultsWeighSemanticHighest(t *testing.T) {
	w := DefaultHybridWeights()
	scoreAllSemantic := HybridScore(1, 0, 0, w)
	scoreAllKeyword := HybridScore(0, 1, 0, w)
	assert.Greater(t, scoreAllSemantic, scoreAllKeyword)
}

func TestRankPacksSortsDescendingAndTruncates(t *testing.T) {
	inputs := []RankInput{
		{Pack: types.ContextPack{PackID: "p1", TargetID: "t1", PackType: types.PackFunctionContext, Confidence: 0.5}},
		{Pack: types.ContextPack{PackID: "p2", TargetID: "t2", PackType: types.PackFunctionContext, Confidence: 0.9}},
		{Pack: types.ContextPack{PackID: "p3", TargetID: "t3", PackType: types.PackFunctionContext, Confidence: 0.1}},
	}
	scoreByTarget := map[string]float64{"t1": 0.2, "t2": 0.9, "t3": 0.1}
	ranked, avg := RankPacks(inputs, scoreByTarget, DepthL1, TaskFeature, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, "p2", ranked[0].Pack.PackID)
	assert.Greater(t, avg, 0.0)
}

func TestRankPacksPenalizesEvalCorpusPaths(t *testing.T) {
	inputs := []RankInput{
		{Pack: types.ContextPack{PackID: "p1", TargetID: "t1", PackType: types.PackFunctionContext, Confidence: 0.9}, RelatedPaths: []string{"eval-corpus/sample.go"}},
		{Pack: types.ContextPack{PackID: "p2", TargetID: "t2", PackType: types.PackFunctionContext, Confidence: 0.9}},
	}
	scoreByTarget := map[string]float64{"t1": 0.9, "t2": 0.9}
	ranked, _ := RankPacks(inputs, scoreByTarget, DepthL1, TaskFeature, 10)
	require := assert.New(t)
	require.Equal("p2", ranked[0].Pack.PackID)
	require.Less(ranked[1].Score, ranked[0].Score)
}
