// Package graph builds the in-memory weighted-graph value used by the
// path engine and the update workflow.
//
// A graph is constructed fresh per operation from a model's persisted
// node count and edge specification; nothing is shared across requests.
// Node IDs are the decimal strings of the indices 0..nodeCount-1, and an
// edge key "i-j" declares an undirected edge between indices i and j.
package graph

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"tokengraph/internal/errors"
)

// Graph is an undirected weighted adjacency structure.
type Graph struct {
	nodeCount int
	adj       map[string]map[string]float64
}

// Build constructs a graph from a node count and an edge specification.
//
// It fails with INVALID_GRAPH_SPEC when the node count is negative, an
// edge key is malformed or references an index outside [0, nodeCount),
// or a weight is negative or non-finite. Negative weights are rejected
// here so the path engine can assume them away.
func Build(nodeCount int, edges map[string]float64) (*Graph, error) {
	if nodeCount < 0 {
		return nil, errors.InvalidGraphSpec("node count must be non-negative, got %d", nodeCount)
	}

	g := &Graph{
		nodeCount: nodeCount,
		adj:       make(map[string]map[string]float64, nodeCount),
	}
	for i := 0; i < nodeCount; i++ {
		g.adj[strconv.Itoa(i)] = make(map[string]float64)
	}

	for key, weight := range edges {
		i, j, err := ParseEdgeKey(key)
		if err != nil {
			return nil, err
		}
		if i >= nodeCount || j >= nodeCount {
			return nil, errors.InvalidGraphSpec("edge %s references an index outside [0,%d)", key, nodeCount)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, errors.InvalidGraphSpec("edge %s has non-finite weight", key)
		}
		if weight < 0 {
			return nil, errors.InvalidGraphSpec("edge %s has negative weight %v", key, weight)
		}
		// Undirected: populate both directions.
		g.adj[strconv.Itoa(i)][strconv.Itoa(j)] = weight
		g.adj[strconv.Itoa(j)][strconv.Itoa(i)] = weight
	}

	return g, nil
}

// ParseEdgeKey splits an "i-j" edge key into its node indices.
func ParseEdgeKey(key string) (int, int, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 {
		return 0, 0, errors.InvalidGraphSpec("malformed edge key %q, want \"i-j\"", key)
	}
	i, err := strconv.Atoi(parts[0])
	if err != nil || i < 0 {
		return 0, 0, errors.InvalidGraphSpec("malformed edge key %q, want \"i-j\"", key)
	}
	j, err := strconv.Atoi(parts[1])
	if err != nil || j < 0 {
		return 0, 0, errors.InvalidGraphSpec("malformed edge key %q, want \"i-j\"", key)
	}
	return i, j, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.nodeCount
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, neighbors := range g.adj {
		count += len(neighbors)
	}
	return count / 2
}

// Adjacency exposes the adjacency structure for the path engine.
// Callers must treat the returned maps as read-only.
func (g *Graph) Adjacency() map[string]map[string]float64 {
	return g.adj
}

// EdgeExists reports whether the edge key is present in the graph.
// A malformed key is simply absent.
func (g *Graph) EdgeExists(key string) bool {
	i, j, err := ParseEdgeKey(key)
	if err != nil {
		return false
	}
	neighbors, ok := g.adj[strconv.Itoa(i)]
	if !ok {
		return false
	}
	_, ok = neighbors[strconv.Itoa(j)]
	return ok
}

// EdgeWeight returns the weight of an existing edge.
func (g *Graph) EdgeWeight(key string) (float64, error) {
	i, j, err := ParseEdgeKey(key)
	if err != nil {
		return 0, errors.EdgeNotFound(key)
	}
	w, ok := g.adj[strconv.Itoa(i)][strconv.Itoa(j)]
	if !ok {
		return 0, errors.EdgeNotFound(key)
	}
	return w, nil
}

// SetEdgeWeight mutates the weight of an existing edge in place.
// Edges are never created implicitly by an update; an absent edge fails
// with EDGE_NOT_FOUND.
func (g *Graph) SetEdgeWeight(key string, weight float64) error {
	i, j, err := ParseEdgeKey(key)
	if err != nil {
		return errors.EdgeNotFound(key)
	}
	from, to := strconv.Itoa(i), strconv.Itoa(j)
	if _, ok := g.adj[from][to]; !ok {
		return errors.EdgeNotFound(key)
	}
	g.adj[from][to] = weight
	g.adj[to][from] = weight
	return nil
}

// Nodes returns the node IDs in index order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.adj))
	for id := range g.adj {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(a, b int) bool {
		ai, _ := strconv.Atoi(nodes[a])
		bi, _ := strconv.Atoi(nodes[b])
		return ai < bi
	})
	return nodes
}
