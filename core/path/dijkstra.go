// Package path computes minimum-cost paths over weighted adjacency
// structures.
//
// The engine is classic Dijkstra with a min-heap priority queue and the
// lazy-decrease-key strategy: improved distances push duplicate heap
// entries, and stale entries are skipped when popped. Ties are broken by
// node ID so repeated runs over the same graph return the same path.
//
// Edge weights must be non-negative; the graph builder rejects negative
// weights before a graph ever reaches this package.
package path

import (
	"container/heap"
	"sort"

	"tokengraph/internal/errors"
)

// Result is a shortest path and its summed edge weight.
type Result struct {
	// Path is the ordered node sequence from start to goal
	Path []string

	// Cost is the sum of traversed edge weights
	Cost float64
}

// ShortestPath returns the minimum-cost path between start and goal.
//
// It fails with NO_PATH_FOUND when either node is absent from the graph
// or when no sequence of edges connects them. A disconnected pair is a
// result variant of the search, not an internal failure.
func ShortestPath(adj map[string]map[string]float64, start, goal string) (Result, error) {
	if _, ok := adj[start]; !ok {
		return Result{}, errors.NoPathFound(start, goal)
	}
	if _, ok := adj[goal]; !ok {
		return Result{}, errors.NoPathFound(start, goal)
	}

	dist := make(map[string]float64, len(adj))
	prev := make(map[string]string, len(adj))
	visited := make(map[string]bool, len(adj))

	pq := make(nodePQ, 0, len(adj))
	heap.Init(&pq)
	dist[start] = 0
	heap.Push(&pq, &nodeItem{id: start, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u := item.id

		// Skip stale entries left behind by lazy decrease-key.
		if visited[u] {
			continue
		}
		visited[u] = true

		if u == goal {
			break
		}

		for _, v := range sortedNeighbors(adj[u]) {
			if visited[v] {
				continue
			}
			candidate := dist[u] + adj[u][v]
			current, seen := dist[v]
			if seen && candidate >= current {
				continue
			}
			dist[v] = candidate
			prev[v] = u
			heap.Push(&pq, &nodeItem{id: v, dist: candidate})
		}
	}

	if !visited[goal] {
		return Result{}, errors.NoPathFound(start, goal)
	}

	// Walk predecessors back from goal to start.
	route := []string{goal}
	for at := goal; at != start; at = prev[at] {
		route = append(route, prev[at])
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}

	return Result{Path: route, Cost: dist[goal]}, nil
}

// sortedNeighbors returns neighbor IDs in lexicographic order so that
// relaxation order, and with it tie-breaking, is deterministic.
func sortedNeighbors(neighbors map[string]float64) []string {
	ids := make([]string, 0, len(neighbors))
	for id := range neighbors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// nodeItem is a vertex and its tentative distance from the source.
type nodeItem struct {
	id   string
	dist float64
}

// nodePQ is a min-heap of *nodeItem ordered by distance, then node ID.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }

func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
