package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengraph/internal/errors"
)

func TestBuild(t *testing.T) {
	t.Run("valid spec builds symmetric adjacency", func(t *testing.T) {
		g, err := Build(3, map[string]float64{"0-1": 2, "1-2": 3})
		require.NoError(t, err)

		adj := g.Adjacency()
		assert.Equal(t, 2.0, adj["0"]["1"])
		assert.Equal(t, 2.0, adj["1"]["0"])
		assert.Equal(t, 3.0, adj["1"]["2"])
		assert.Equal(t, 3.0, adj["2"]["1"])
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("empty graph", func(t *testing.T) {
		g, err := Build(0, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, g.NodeCount())
		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("negative node count", func(t *testing.T) {
		_, err := Build(-1, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidGraphSpec))
	})

	t.Run("out of range index", func(t *testing.T) {
		_, err := Build(3, map[string]float64{"1-3": 2})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidGraphSpec))
	})

	t.Run("malformed edge key", func(t *testing.T) {
		for _, key := range []string{"1", "a-b", "1-2-3", "-1-2", ""} {
			_, err := Build(5, map[string]float64{key: 1})
			require.Error(t, err, "key %q", key)
			assert.True(t, errors.IsType(err, errors.TypeInvalidGraphSpec), "key %q", key)
		}
	})

	t.Run("non-finite weight", func(t *testing.T) {
		for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err := Build(2, map[string]float64{"0-1": w})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInvalidGraphSpec))
		}
	})

	t.Run("negative weight rejected at build time", func(t *testing.T) {
		_, err := Build(2, map[string]float64{"0-1": -1})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeInvalidGraphSpec))
	})
}

func TestEdgeExists(t *testing.T) {
	g, err := Build(3, map[string]float64{"0-1": 2})
	require.NoError(t, err)

	assert.True(t, g.EdgeExists("0-1"))
	assert.True(t, g.EdgeExists("1-0"), "undirected edges exist in both directions")
	assert.False(t, g.EdgeExists("1-2"))
	assert.False(t, g.EdgeExists("bogus"))
}

func TestSetEdgeWeight(t *testing.T) {
	t.Run("mutates both directions", func(t *testing.T) {
		g, err := Build(3, map[string]float64{"0-1": 2})
		require.NoError(t, err)

		require.NoError(t, g.SetEdgeWeight("0-1", 7))
		adj := g.Adjacency()
		assert.Equal(t, 7.0, adj["0"]["1"])
		assert.Equal(t, 7.0, adj["1"]["0"])
	})

	t.Run("absent edge is never created", func(t *testing.T) {
		g, err := Build(3, map[string]float64{"0-1": 2})
		require.NoError(t, err)

		err = g.SetEdgeWeight("1-2", 7)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeEdgeNotFound))
		assert.False(t, g.EdgeExists("1-2"))
	})
}

func TestNodes(t *testing.T) {
	g, err := Build(11, nil)
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 11)
	// Index order, not lexicographic: 2 before 10.
	assert.Equal(t, "2", nodes[2])
	assert.Equal(t, "10", nodes[10])
}
