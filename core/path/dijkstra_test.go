package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengraph/internal/errors"
)

// undirected inserts an edge in both directions
func undirected(adj map[string]map[string]float64, a, b string, w float64) {
	if adj[a] == nil {
		adj[a] = make(map[string]float64)
	}
	if adj[b] == nil {
		adj[b] = make(map[string]float64)
	}
	adj[a][b] = w
	adj[b][a] = w
}

func TestShortestPath(t *testing.T) {
	t.Run("two hop line", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 1)
		undirected(adj, "B", "C", 2)

		result, err := ShortestPath(adj, "A", "C")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, result.Path)
		assert.Equal(t, 3.0, result.Cost)
	})

	t.Run("direct edge loses to cheaper detour", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 1)
		undirected(adj, "B", "C", 1)
		undirected(adj, "A", "C", 5)

		result, err := ShortestPath(adj, "A", "C")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, result.Path)
		assert.Equal(t, 2.0, result.Cost)
	})

	t.Run("start equals goal", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 1)

		result, err := ShortestPath(adj, "A", "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, result.Path)
		assert.Equal(t, 0.0, result.Cost)
	})

	t.Run("disconnected components", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 1)
		undirected(adj, "C", "D", 1)

		_, err := ShortestPath(adj, "A", "D")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeNoPathFound))
	})

	t.Run("unknown start or goal", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 1)

		_, err := ShortestPath(adj, "Z", "B")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeNoPathFound))

		_, err = ShortestPath(adj, "A", "Z")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeNoPathFound))
	})

	t.Run("zero weight edges traverse", func(t *testing.T) {
		adj := map[string]map[string]float64{}
		undirected(adj, "A", "B", 0)
		undirected(adj, "B", "C", 0)

		result, err := ShortestPath(adj, "A", "C")
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Cost)
		assert.Equal(t, []string{"A", "B", "C"}, result.Path)
	})

	t.Run("equal cost ties break deterministically", func(t *testing.T) {
		// Two routes A->B->D and A->C->D, both costing 2. The engine
		// must pick the same one every run: the lexicographically
		// smaller relaxation wins.
		build := func() map[string]map[string]float64 {
			adj := map[string]map[string]float64{}
			undirected(adj, "A", "B", 1)
			undirected(adj, "A", "C", 1)
			undirected(adj, "B", "D", 1)
			undirected(adj, "C", "D", 1)
			return adj
		}

		first, err := ShortestPath(build(), "A", "D")
		require.NoError(t, err)
		assert.Equal(t, 2.0, first.Cost)

		for i := 0; i < 50; i++ {
			again, err := ShortestPath(build(), "A", "D")
			require.NoError(t, err)
			assert.Equal(t, first.Path, again.Path)
		}
	})

	t.Run("larger grid", func(t *testing.T) {
		// 0-1-2
		// |   |
		// 3-4-5  with a heavy shortcut 0-5
		adj := map[string]map[string]float64{}
		undirected(adj, "0", "1", 1)
		undirected(adj, "1", "2", 1)
		undirected(adj, "0", "3", 1)
		undirected(adj, "2", "5", 1)
		undirected(adj, "3", "4", 1)
		undirected(adj, "4", "5", 1)
		undirected(adj, "0", "5", 10)

		result, err := ShortestPath(adj, "0", "5")
		require.NoError(t, err)
		assert.Equal(t, 3.0, result.Cost)
		assert.Len(t, result.Path, 4)
	})
}
