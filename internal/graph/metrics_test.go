package graph

import (
	"context"
	"testing"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineAdjacency() Adjacency {
	// a -> b -> c, simple chain.
	return Adjacency{
		"a": {"b": true},
		"b": {"c": true},
		"c": {},
	}
}

func TestPageRankOrdersBySinkNode(t *testing.T) {
	adj := lineAdjacency()
	scores := PageRank(adj)
	require.Len(t, scores, 3)
	// c receives rank from b which receives from a, so c should rank highest.
	assert.Greater(t, scores["c"], scores["a"])
}

func TestPageRankSumsApproximatelyToOne(t *testing.T) {
	adj := Adjacency{
		"a": {"b": true, "c": true},
		"b": {"c": true},
		"c": {"a": true},
	}
	scores := PageRank(adj)
	var sum float64
	for _, s := range scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestBetweennessOfBridgeNode(t *testing.T) {
	// a - b - c, b bridges a and c.
	adj := Adjacency{
		"a": {"b": true},
		"b": {"a": true, "c": true},
		"c": {"b": true},
	}
	scores := Betweenness(adj)
	assert.Greater(t, scores["b"], scores["a"])
	assert.Greater(t, scores["b"], scores["c"])
}

func TestClosenessOfIsolatedNodeIsZero(t *testing.T) {
	adj := Adjacency{
		"a": {"b": true},
		"b": {},
		"isolated": {},
	}
	scores := Closeness(adj)
	assert.Equal(t, 0.0, scores["isolated"])
}

func TestHotspotZeroWithoutChurn(t *testing.T) {
	assert.Equal(t, 0.0, Hotspot(0, 500))
	assert.Equal(t, 0.0, Hotspot(10, 0))
	assert.Greater(t, Hotspot(50, 500), 0.0)
}

func TestHotspotMonotonicInChurn(t *testing.T) {
	low := Hotspot(1, 100)
	high := Hotspot(100, 100)
	assert.Greater(t, high, low)
}

func TestBuildCoChangeGraphNormalizesByCommitCount(t *testing.T) {
	git := &llmsvc.FakeGit{Commits: []llmsvc.Commit{
		{SHA: "1", Files: []string{"a.go", "b.go"}},
		{SHA: "2", Files: []string{"a.go", "b.go"}},
		{SHA: "3", Files: []string{"c.go"}},
	}}
	edges, err := BuildCoChangeGraph(context.Background(), git, 10, 10)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "a.go", edges[0].FileA)
	assert.Equal(t, "b.go", edges[0].FileB)
	assert.InDelta(t, 2.0/3.0, edges[0].Strength, 0.001)
}

func TestSortedNodesDeterministicOrder(t *testing.T) {
	adj := Adjacency{"z": {"a": true}, "m": {}, "a": {}}
	nodes := adj.SortedNodes()
	assert.Equal(t, []string{"a", "m", "z"}, nodes)
}
