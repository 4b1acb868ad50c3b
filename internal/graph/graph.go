// Package graph holds the weighted candidate graph consumed by the ranker.
package graph

import (
	"math"

	"keyrank/internal/domain"
	"keyrank/internal/similarity"
)

// PruneEpsilon is the weight at or below which an edge is not materialized.
const PruneEpsilon = 1e-9

// Edge is a weighted directed connection.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Graph stores incoming edges per node plus each node's outgoing weight sum,
// which is the shape the power iteration reads.
type Graph struct {
	Directed  bool
	incoming  [][]Edge
	outWeight []float64
	edges     int
}

// New creates a graph with n nodes and no edges.
func New(n int, directed bool) *Graph {
	return &Graph{
		Directed:  directed,
		incoming:  make([][]Edge, n),
		outWeight: make([]float64, n),
	}
}

// AddEdge adds from->to (and to->from when undirected). Self loops and
// non-positive or non-finite weights are ignored.
func (g *Graph) AddEdge(from, to int, weight float64) {
	if from == to || weight <= PruneEpsilon || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return
	}
	g.link(from, to, weight)
	if !g.Directed {
		g.link(to, from, weight)
	}
	g.edges++
}

func (g *Graph) link(from, to int, weight float64) {
	g.incoming[to] = append(g.incoming[to], Edge{From: from, To: to, Weight: weight})
	g.outWeight[from] += weight
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.incoming) }

// Incoming returns the edges pointing at node i.
func (g *Graph) Incoming(i int) []Edge { return g.incoming[i] }

// OutWeight returns the total weight leaving node i.
func (g *Graph) OutWeight(i int) float64 { return g.outWeight[i] }

// EdgeCount returns the number of AddEdge calls that produced an edge.
func (g *Graph) EdgeCount() int { return g.edges }

// IsEdgeless reports whether no edge exists.
func (g *Graph) IsEdgeless() bool { return g.edges == 0 }

// weight returns the weight of from->to, or 0.
func (g *Graph) weight(from, to int) float64 {
	for _, e := range g.incoming[to] {
		if e.From == from {
			return e.Weight
		}
	}
	return 0
}

// BuildPlain connects every pair with non-negligible similarity.
func BuildPlain(m similarity.Matrix) *Graph {
	n := m.Len()
	g := New(n, false)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.AddEdge(i, j, m[i][j])
		}
	}
	return g
}

// BuildMultipartite connects only candidates of different topics. The weight is
// the similarity scaled by 1/|pos_i - pos_j| (1.0 when positions coincide).
// Candidates without a topic count as their own singleton topic.
func BuildMultipartite(cands []domain.Candidate, m similarity.Matrix) *Graph {
	n := len(cands)
	g := New(n, false)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameTopic(cands[i], cands[j]) {
				continue
			}
			g.AddEdge(i, j, m[i][j]*InverseDistance(cands[i].Position, cands[j].Position))
		}
	}
	return g
}

// InverseDistance is 1/|a-b|, or 1 when a == b.
func InverseDistance(a, b int) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d == 0 {
		return 1
	}
	return 1 / float64(d)
}

func sameTopic(a, b domain.Candidate) bool {
	return a.TopicID != domain.NoTopic && a.TopicID == b.TopicID
}
