package topology

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
	"github.com/rbignon/speedfog-sub000/internal/planner"
	"github.com/rbignon/speedfog-sub000/internal/rungraph"
)

func gw(id, zone string) catalog.Gateway {
	return catalog.Gateway{GateID: id, Zone: zone}
}

func mini(id string) *catalog.Cluster {
	zone := "z_" + id
	return &catalog.Cluster{
		ID: id, Zones: []string{zone}, Type: catalog.TypeMiniDungeon, Weight: 3,
		Entrances:     []catalog.Gateway{gw(id+"_in", zone)},
		Exits:         []catalog.Gateway{gw(id+"_out", zone)},
		ReuseEntrance: true,
	}
}

// chainCatalog: a start with two exits, three one-in-one-out
// mini-dungeons, and a single-entrance final boss.
func chainCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*catalog.Cluster{
		{
			ID: "chapel", Zones: []string{"z_start"}, Type: catalog.TypeStart, Weight: 1,
			Exits: []catalog.Gateway{gw("start_a", "z_start"), gw("start_b", "z_start")},
		},
		mini("m1"), mini("m2"), mini("m3"),
		{
			ID: "throne", Zones: []string{"z_final"}, Type: catalog.TypeFinalBoss, Weight: 5,
			Entrances: []catalog.Gateway{gw("final_in", "z_final")},
		},
	}, nil)
	require.NoError(t, err)
	return cat
}

func chainConfig() *config.Config {
	return &config.Config{
		Budget: config.Budget{TargetWeight: 10, Tolerance: 50},
		Structure: config.Structure{
			MinLayers: 1, MaxLayers: 1,
			MaxParallelPaths: 2, MaxBranches: 2,
			FinalTier: 10, MaxAttempts: 1,
		},
	}
}

func generate(t *testing.T, cat *catalog.Catalog, cfg *config.Config, seed int64, layers []planner.Layer) *rungraph.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g, err := New(cat, cfg, rng).Generate(context.Background(), seed, layers)
	require.NoError(t, err)
	return g
}

func TestGenerateLinearChain(t *testing.T) {
	t.Parallel()

	layers := []planner.Layer{{Type: catalog.TypeMiniDungeon, Tier: 5}}
	g := generate(t, chainCatalog(t), chainConfig(), 7, layers)

	// the start cluster's two exits force two branches, each through its
	// own mini-dungeon, both closed by the final boss
	require.Len(t, g.Nodes, 4)
	assert.Empty(t, g.ValidateStructure())

	intermediates := 0
	for _, n := range g.Nodes {
		if n.Layer == 1 {
			intermediates++
			assert.Equal(t, catalog.TypeMiniDungeon, n.Cluster.Type)
			assert.Equal(t, 5, n.Tier)
		}
	}
	assert.Equal(t, 2, intermediates)

	paths := g.Paths()
	assert.Len(t, paths, 2)

	end := g.Nodes[g.EndID]
	assert.Equal(t, catalog.TypeFinalBoss, end.Cluster.Type)
	assert.Equal(t, 10, end.Tier)
	assert.Empty(t, end.Exits)
	assert.Len(t, end.Entries, 2)
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	layers := []planner.Layer{{Type: catalog.TypeMiniDungeon, Tier: 5}}

	a := generate(t, chainCatalog(t), chainConfig(), 7, layers)
	b := generate(t, chainCatalog(t), chainConfig(), 7, layers)

	require.Equal(t, a.NodeIDs(), b.NodeIDs())
	for _, id := range a.NodeIDs() {
		assert.Equal(t, a.Nodes[id].Cluster.ID, b.Nodes[id].Cluster.ID)
		assert.Equal(t, a.Nodes[id].Layer, b.Nodes[id].Layer)
	}
	require.Len(t, b.Edges, len(a.Edges))
	for i := range a.Edges {
		assert.Equal(t, a.Edges[i], b.Edges[i])
	}
}

func TestGenerateEntryAccounting(t *testing.T) {
	t.Parallel()

	layers := []planner.Layer{{Type: catalog.TypeMiniDungeon, Tier: 5}}
	g := generate(t, chainCatalog(t), chainConfig(), 11, layers)

	for id, n := range g.Nodes {
		if id == g.StartID {
			assert.Empty(t, n.Entries)
			continue
		}
		assert.Len(t, n.Entries, g.IncomingCount(id), "node %s", id)
	}
}

func TestGenerateNoDuplicateEdges(t *testing.T) {
	t.Parallel()

	layers := []planner.Layer{{Type: catalog.TypeMiniDungeon, Tier: 5}}
	g := generate(t, chainCatalog(t), chainConfig(), 23, layers)

	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		key := [2]string{e.From, e.To}
		assert.False(t, seen[key], "duplicate edge %s->%s", e.From, e.To)
		seen[key] = true
	}
}

func TestGenerateZeroLayersCollapsesSharedFrontier(t *testing.T) {
	t.Parallel()

	// with no interior layers both branches still sit on the start node;
	// closing the run must not repeat the (start, end) edge
	g := generate(t, chainCatalog(t), chainConfig(), 7, nil)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, g.StartID, g.Edges[0].From)
	assert.Equal(t, g.EndID, g.Edges[0].To)

	end := g.Nodes[g.EndID]
	assert.Len(t, end.Entries, 1)
	assert.Len(t, g.Paths(), 1)
}

func TestGenerateCandidateExhaustion(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]*catalog.Cluster{
		{
			ID: "chapel", Zones: []string{"z_start"}, Type: catalog.TypeStart, Weight: 1,
			Exits: []catalog.Gateway{gw("start_a", "z_start")},
		},
		mini("m1"), mini("m2"),
		{
			ID: "throne", Zones: []string{"z_final"}, Type: catalog.TypeFinalBoss, Weight: 5,
			Entrances: []catalog.Gateway{gw("final_in", "z_final")},
		},
	}, nil)
	require.NoError(t, err)

	cfg := chainConfig()
	cfg.Structure.MaxParallelPaths = 1
	cfg.Structure.MaxBranches = 0
	cfg.Structure.MinLayers = 5
	cfg.Structure.MaxLayers = 5

	// five mini layers against a two-mini catalog must stall
	layers := make([]planner.Layer, 5)
	for i := range layers {
		layers[i] = planner.Layer{Type: catalog.TypeMiniDungeon, Tier: i + 1}
	}

	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		_, err := New(cat, cfg, rng).Generate(context.Background(), seed, layers)
		assert.ErrorIs(t, err, ErrCandidateExhausted, "seed %d", seed)
	}
}

func TestGenerateMissingStart(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]*catalog.Cluster{mini("m1")}, nil)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	_, genErr := New(cat, chainConfig(), rng).Generate(context.Background(), 1, nil)
	assert.ErrorIs(t, genErr, catalog.ErrTypeMissing)
}

func TestGenerateSplit(t *testing.T) {
	t.Parallel()

	// minis with two exits so a frontier node keeps a spare exit
	wide := func(id string) *catalog.Cluster {
		zone := "z_" + id
		return &catalog.Cluster{
			ID: id, Zones: []string{zone}, Type: catalog.TypeMiniDungeon, Weight: 2,
			Entrances: []catalog.Gateway{gw(id+"_in", zone)},
			Exits:     []catalog.Gateway{gw(id+"_out1", zone), gw(id+"_out2", zone)},
		}
	}
	cat, err := catalog.New([]*catalog.Cluster{
		{
			ID: "chapel", Zones: []string{"z_start"}, Type: catalog.TypeStart, Weight: 1,
			Exits: []catalog.Gateway{gw("start_a", "z_start")},
		},
		wide("w1"), wide("w2"), wide("w3"), wide("w4"),
		{
			ID: "throne", Zones: []string{"z_final"}, Type: catalog.TypeFinalBoss, Weight: 5,
			Entrances: []catalog.Gateway{gw("fin_1", "z_final"), gw("fin_2", "z_final")},
		},
	}, nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Budget: config.Budget{TargetWeight: 10, Tolerance: 50},
		Structure: config.Structure{
			MinLayers: 2, MaxLayers: 2,
			MaxParallelPaths: 2, MaxBranches: 2,
			SplitProbability: 1.0,
			FinalTier:        8, MaxAttempts: 1,
		},
	}
	layers := []planner.Layer{
		{Type: catalog.TypeMiniDungeon, Tier: 3},
		{Type: catalog.TypeMiniDungeon, Tier: 6},
	}

	g := generate(t, cat, cfg, 5, layers)
	assert.Empty(t, g.ValidateStructure())

	// one branch through layer one, split into two in layer two
	assert.Len(t, g.Nodes, 5)
	assert.Len(t, g.Paths(), 2)
}

func TestGenerateMerge(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]*catalog.Cluster{
		{
			ID: "chapel", Zones: []string{"z_start"}, Type: catalog.TypeStart, Weight: 1,
			Exits: []catalog.Gateway{gw("start_a", "z_start"), gw("start_b", "z_start")},
		},
		mini("m1"), mini("m2"),
		{
			ID: "arena", Zones: []string{"z_arena"}, Type: catalog.TypeBossArena, Weight: 6,
			Entrances: []catalog.Gateway{gw("arena_w", "z_arena"), gw("arena_e", "z_arena")},
			Exits:     []catalog.Gateway{gw("arena_out", "z_arena")},
		},
		{
			ID: "throne", Zones: []string{"z_final"}, Type: catalog.TypeFinalBoss, Weight: 5,
			Entrances: []catalog.Gateway{gw("final_in", "z_final")},
		},
	}, nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Budget: config.Budget{TargetWeight: 10, Tolerance: 50},
		Structure: config.Structure{
			MinLayers: 2, MaxLayers: 2,
			MaxParallelPaths: 2, MaxBranches: 2,
			MergeProbability: 1.0,
			FinalTier:        8, MaxAttempts: 1,
		},
	}
	layers := []planner.Layer{
		{Type: catalog.TypeMiniDungeon, Tier: 3},
		{Type: catalog.TypeBossArena, Tier: 6},
	}

	g := generate(t, cat, cfg, 9, layers)
	assert.Empty(t, g.ValidateStructure())

	// two branches out of the start merge into the arena: start, two
	// minis, the arena, and the final boss
	require.Len(t, g.Nodes, 5)

	var arena *rungraph.Node
	for _, n := range g.Nodes {
		if n.Cluster.ID == "arena" {
			arena = n
		}
	}
	require.NotNil(t, arena)
	assert.Len(t, arena.Entries, 2)
	assert.Equal(t, 2, g.IncomingCount(arena.ID))

	// both routes converge, then a single tail to the end
	assert.Len(t, g.Paths(), 2)
}
