package rungraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
)

func gw(id, zone string) catalog.Gateway {
	return catalog.Gateway{GateID: id, Zone: zone}
}

// diamond builds start -> {a, b} -> end with unit weights.
func diamond(t *testing.T) *Graph {
	t.Helper()
	g := New(1)
	for _, n := range []*Node{
		{ID: "start", Layer: 0, Cluster: &catalog.Cluster{ID: "start", Weight: 1}},
		{ID: "a", Layer: 1, Cluster: &catalog.Cluster{ID: "a", Weight: 2}, Entries: []catalog.Gateway{gw("e1", "za")}},
		{ID: "b", Layer: 1, Cluster: &catalog.Cluster{ID: "b", Weight: 3}, Entries: []catalog.Gateway{gw("e2", "zb")}},
		{ID: "end", Layer: 2, Cluster: &catalog.Cluster{ID: "end", Weight: 1},
			Entries: []catalog.Gateway{gw("e3", "zf"), gw("e3", "zf")}},
	} {
		require.NoError(t, g.AddNode(n))
	}
	g.StartID, g.EndID = "start", "end"
	require.NoError(t, g.AddEdge(Edge{From: "start", To: "a", Exit: gw("x1", "zs"), Entry: gw("e1", "za")}))
	require.NoError(t, g.AddEdge(Edge{From: "start", To: "b", Exit: gw("x2", "zs"), Entry: gw("e2", "zb")}))
	require.NoError(t, g.AddEdge(Edge{From: "a", To: "end", Exit: gw("x3", "za"), Entry: gw("e3", "zf")}))
	require.NoError(t, g.AddEdge(Edge{From: "b", To: "end", Exit: gw("x4", "zb"), Entry: gw("e3", "zf")}))
	return g
}

func TestAddNodeRejectsDuplicates(t *testing.T) {
	t.Parallel()

	g := New(1)
	require.NoError(t, g.AddNode(&Node{ID: "n"}))
	assert.ErrorIs(t, g.AddNode(&Node{ID: "n"}), ErrDuplicateNode)
}

func TestAddEdgeRejectsUnknownNodes(t *testing.T) {
	t.Parallel()

	g := New(1)
	require.NoError(t, g.AddNode(&Node{ID: "n"}))
	assert.ErrorIs(t, g.AddEdge(Edge{From: "n", To: "ghost"}), ErrUnknownNode)
	assert.ErrorIs(t, g.AddEdge(Edge{From: "ghost", To: "n"}), ErrUnknownNode)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	g := diamond(t)
	paths := g.Paths()
	require.Len(t, paths, 2)
	// sorted successor order makes enumeration deterministic
	assert.Equal(t, []string{"start", "a", "end"}, paths[0])
	assert.Equal(t, []string{"start", "b", "end"}, paths[1])

	// safe to call again
	assert.Equal(t, paths, g.Paths())
}

func TestPathsCollapseParallelEdges(t *testing.T) {
	t.Parallel()

	g := New(1)
	require.NoError(t, g.AddNode(&Node{ID: "start", Layer: 0}))
	require.NoError(t, g.AddNode(&Node{ID: "end", Layer: 1}))
	g.StartID, g.EndID = "start", "end"
	require.NoError(t, g.AddEdge(Edge{From: "start", To: "end", Exit: gw("x1", "z"), Entry: gw("e1", "z")}))
	require.NoError(t, g.AddEdge(Edge{From: "start", To: "end", Exit: gw("x2", "z"), Entry: gw("e2", "z")}))

	// two parallel edges, one path
	assert.Len(t, g.Paths(), 1)
}

func TestPathWeight(t *testing.T) {
	t.Parallel()

	g := diamond(t)
	assert.Equal(t, 4, g.PathWeight([]string{"start", "a", "end"}))
	assert.Equal(t, 5, g.PathWeight([]string{"start", "b", "end"}))
}

func TestValidateStructureCleanGraph(t *testing.T) {
	t.Parallel()

	assert.Empty(t, diamond(t).ValidateStructure())
}

func TestValidateStructureFindsProblems(t *testing.T) {
	t.Parallel()

	t.Run("missing markers", func(t *testing.T) {
		g := New(1)
		problems := g.ValidateStructure()
		assert.Len(t, problems, 2)
	})

	t.Run("layer order violation", func(t *testing.T) {
		g := New(1)
		require.NoError(t, g.AddNode(&Node{ID: "start", Layer: 0}))
		require.NoError(t, g.AddNode(&Node{ID: "late", Layer: 2}))
		require.NoError(t, g.AddNode(&Node{ID: "end", Layer: 1}))
		g.StartID, g.EndID = "start", "end"
		require.NoError(t, g.AddEdge(Edge{From: "start", To: "late"}))
		require.NoError(t, g.AddEdge(Edge{From: "late", To: "end"}))

		problems := g.ValidateStructure()
		require.NotEmpty(t, problems)
		assert.Contains(t, problems[0], "does not advance layers")
	})

	t.Run("disconnected node", func(t *testing.T) {
		g := diamond(t)
		require.NoError(t, g.AddNode(&Node{ID: "island", Layer: 1}))

		problems := g.ValidateStructure()
		require.Len(t, problems, 2)
		assert.Contains(t, problems[0], "unreachable from start")
		assert.Contains(t, problems[1], "cannot reach end")
	})
}
