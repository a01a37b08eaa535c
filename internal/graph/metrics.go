// Package graph implements the graph-metrics algorithms that drive pack
// ranking and importance scoring (spec.md §4.F): PageRank, Brandes'
// betweenness centrality, closeness/eigenvector centrality, hotspot
// scoring, and a co-change graph built from commit history. All
// algorithms operate over Map<EntityId, Set<EntityId>> adjacency.
// Grounded on the teacher's graph-adjacent traversal style in
// internal/world (deterministic, lexically tie-broken iteration order).
package graph

import (
	"context"
	"math"
	"sort"

	"github.com/nateschmiedehaus/librarian-sub012/internal/llmsvc"
)

// Adjacency maps an entity id to the set of entity ids it points to.
type Adjacency map[string]map[string]bool

// SortedNodes returns the adjacency's node ids in deterministic lexical
// order — every algorithm below iterates nodes in this order so ties
// break the same way across runs.
func (a Adjacency) SortedNodes() []string {
	set := make(map[string]bool)
	for from, tos := range a {
		set[from] = true
		for to := range tos {
			set[to] = true
		}
	}
	nodes := make([]string, 0, len(set))
	for n := range set {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

const (
	pageRankDamping    = 0.85
	pageRankMaxIters   = 100
	pageRankConvergence = 1e-6
)

// PageRank computes PageRank scores with damping 0.85, dangling-node
// redistribution, and convergence at 1e-6 or after 100 iterations.
func PageRank(adj Adjacency) map[string]float64 {
	nodes := adj.SortedNodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	outDegree := make(map[string]int, n)
	for _, node := range nodes {
		outDegree[node] = len(adj[node])
	}

	scores := make(map[string]float64, n)
	for _, node := range nodes {
		scores[node] = 1.0 / float64(n)
	}

	incoming := make(map[string][]string, n)
	for _, from := range nodes {
		for to := range adj[from] {
			incoming[to] = append(incoming[to], from)
		}
	}
	for _, v := range incoming {
		sort.Strings(v)
	}

	for iter := 0; iter < pageRankMaxIters; iter++ {
		var danglingMass float64
		for _, node := range nodes {
			if outDegree[node] == 0 {
				danglingMass += scores[node]
			}
		}
		next := make(map[string]float64, n)
		base := (1 - pageRankDamping) / float64(n)
		danglingShare := pageRankDamping * danglingMass / float64(n)
		for _, node := range nodes {
			sum := 0.0
			for _, from := range incoming[node] {
				if outDegree[from] > 0 {
					sum += scores[from] / float64(outDegree[from])
				}
			}
			next[node] = base + danglingShare + pageRankDamping*sum
		}

		var delta float64
		for _, node := range nodes {
			delta += math.Abs(next[node] - scores[node])
		}
		scores = next
		if delta < pageRankConvergence {
			break
		}
	}
	return scores
}

// Betweenness computes normalized betweenness centrality via Brandes'
// algorithm on an unweighted graph, normalized by (n-1)(n-2).
func Betweenness(adj Adjacency) map[string]float64 {
	nodes := adj.SortedNodes()
	n := len(nodes)
	centrality := make(map[string]float64, n)
	for _, node := range nodes {
		centrality[node] = 0
	}
	if n < 3 {
		return centrality
	}

	for _, s := range nodes {
		stack := []string{}
		pred := make(map[string][]string)
		sigma := make(map[string]float64)
		dist := make(map[string]int)
		for _, node := range nodes {
			sigma[node] = 0
			dist[node] = -1
		}
		sigma[s] = 1
		dist[s] = 0
		queue := []string{s}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			neighbors := sortedKeys(adj[v])
			for _, w := range neighbors {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	norm := float64((n - 1) * (n - 2))
	if norm > 0 {
		for _, node := range nodes {
			centrality[node] = centrality[node] / norm
		}
	}
	return centrality
}

// Closeness computes closeness centrality: (reachable-1) / sum of
// shortest-path distances to reachable nodes, 0 for isolated nodes.
func Closeness(adj Adjacency) map[string]float64 {
	nodes := adj.SortedNodes()
	result := make(map[string]float64, len(nodes))
	for _, s := range nodes {
		dist := bfsDistances(adj, s)
		var sum float64
		var reachable int
		for _, d := range dist {
			if d > 0 {
				sum += float64(d)
				reachable++
			}
		}
		if sum == 0 || reachable == 0 {
			result[s] = 0
			continue
		}
		result[s] = float64(reachable) / sum
	}
	return result
}

func bfsDistances(adj Adjacency, source string) map[string]int {
	dist := map[string]int{source: 0}
	queue := []string{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range sortedKeys(adj[v]) {
			if _, seen := dist[w]; !seen {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// Eigenvector computes eigenvector centrality via power iteration.
func Eigenvector(adj Adjacency) map[string]float64 {
	nodes := adj.SortedNodes()
	n := len(nodes)
	scores := make(map[string]float64, n)
	for _, node := range nodes {
		scores[node] = 1.0 / math.Max(1, float64(n))
	}
	incoming := make(map[string][]string, n)
	for from, tos := range adj {
		for to := range tos {
			incoming[to] = append(incoming[to], from)
		}
	}
	for _, v := range incoming {
		sort.Strings(v)
	}

	for iter := 0; iter < 100; iter++ {
		next := make(map[string]float64, n)
		for _, node := range nodes {
			sum := 0.0
			for _, from := range incoming[node] {
				sum += scores[from]
			}
			next[node] = sum
		}
		var norm float64
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}
		var delta float64
		for _, node := range nodes {
			next[node] /= norm
			delta += math.Abs(next[node] - scores[node])
		}
		scores = next
		if delta < 1e-6 {
			break
		}
	}
	return scores
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Hotspot combines churn (commit count touching the file) with a
// complexity proxy (line count) into a single score in [0,1].
func Hotspot(churn int, complexity int) float64 {
	if churn <= 0 || complexity <= 0 {
		return 0
	}
	raw := math.Log1p(float64(churn)) * math.Log1p(float64(complexity))
	// Squash into [0,1] with a soft ceiling; raw rarely exceeds ~20 for
	// realistic churn/complexity magnitudes.
	return math.Min(1.0, raw/20.0)
}

// CoChangeEdge is one pair of files observed together in commit history.
type CoChangeEdge struct {
	FileA    string
	FileB    string
	Count    int
	Strength float64
}

// BuildCoChangeGraph walks up to maxCommits commits (each capped to
// maxFilesPerCommit files) and counts file pairs appearing in the same
// commit, normalizing by commit count into strength ∈ [0,1].
func BuildCoChangeGraph(ctx context.Context, g llmsvc.Git, maxCommits, maxFilesPerCommit int) ([]CoChangeEdge, error) {
	commits, err := g.RecentCommits(ctx, maxCommits)
	if err != nil {
		return nil, err
	}
	pairCounts := make(map[[2]string]int)
	commitCount := len(commits)
	for _, c := range commits {
		files := c.Files
		if maxFilesPerCommit > 0 && len(files) > maxFilesPerCommit {
			files = files[:maxFilesPerCommit]
		}
		sorted := append([]string(nil), files...)
		sort.Strings(sorted)
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				key := [2]string{sorted[i], sorted[j]}
				pairCounts[key]++
			}
		}
	}

	edges := make([]CoChangeEdge, 0, len(pairCounts))
	for pair, count := range pairCounts {
		strength := 0.0
		if commitCount > 0 {
			strength = float64(count) / float64(commitCount)
			if strength > 1 {
				strength = 1
			}
		}
		edges = append(edges, CoChangeEdge{FileA: pair[0], FileB: pair[1], Count: count, Strength: strength})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FileA != edges[j].FileA {
			return edges[i].FileA < edges[j].FileA
		}
		return edges[i].FileB < edges[j].FileB
	})
	return edges, nil
}
