// Package validator runs post-hoc checks over a completed run graph.
// Findings are values, never errors raised to the caller: blocking
// problems land in Errors, advisory ones in Warnings.
package validator

import (
	"fmt"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
	"github.com/rbignon/speedfog-sub000/internal/rungraph"
)

// Result partitions findings. Valid is true when no blocking errors were
// found; warnings never block acceptance.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Check runs every validation pass, in order, independently of each
// other, and returns the combined result.
func Check(g *rungraph.Graph, cfg *config.Config) *Result {
	r := &Result{}

	r.Errors = append(r.Errors, g.ValidateStructure()...)
	checkEntryAccounting(g, r)
	checkDuplicateEdges(g, r)
	checkQuotas(g, cfg, r)
	checkPaths(g, cfg, r)
	checkLayerFloor(g, cfg, r)

	r.Valid = len(r.Errors) == 0
	return r
}

// checkEntryAccounting verifies that every non-start node recorded one
// entry gateway per incoming edge.
func checkEntryAccounting(g *rungraph.Graph, r *Result) {
	for _, id := range g.NodeIDs() {
		if id == g.StartID {
			continue
		}
		node := g.Nodes[id]
		incoming := g.IncomingCount(id)
		if incoming != len(node.Entries) {
			r.Errors = append(r.Errors,
				fmt.Sprintf("node %s: %d incoming edges but %d recorded entries", id, incoming, len(node.Entries)))
		}
	}
}

// checkDuplicateEdges flags repeated (source, target) pairs.
func checkDuplicateEdges(g *rungraph.Graph, r *Result) {
	seen := make(map[[2]string]bool, len(g.Edges))
	for _, e := range g.Edges {
		key := [2]string{e.From, e.To}
		if seen[key] {
			r.Errors = append(r.Errors, fmt.Sprintf("duplicate edge %s->%s", e.From, e.To))
		}
		seen[key] = true
	}
}

// checkQuotas counts placed clusters per required content type.
func checkQuotas(g *rungraph.Graph, cfg *config.Config, r *Result) {
	counts := make(map[catalog.ContentType]int)
	for _, node := range g.Nodes {
		if node.Cluster != nil {
			counts[node.Cluster.Type]++
		}
	}
	req := cfg.Requirements
	quota := func(t catalog.ContentType, want int) {
		if counts[t] < want {
			r.Errors = append(r.Errors,
				fmt.Sprintf("quota shortfall: %d %s clusters, need %d", counts[t], t, want))
		}
	}
	quota(catalog.TypeLegacyDungeon, req.LegacyDungeons)
	quota(catalog.TypeBossArena, req.BossArenas)
	quota(catalog.TypeMiniDungeon, req.MiniDungeons)
}

// checkPaths enumerates start-to-end paths and checks the weight budget.
// Zero paths is a blocking error; a single path and an out-of-tolerance
// weight spread are advisory.
func checkPaths(g *rungraph.Graph, cfg *config.Config, r *Result) {
	paths := g.Paths()
	if len(paths) == 0 {
		r.Errors = append(r.Errors, "no path from start to end")
		return
	}
	if len(paths) == 1 {
		r.Warnings = append(r.Warnings, "only one path from start to end")
	}

	minW, maxW := g.PathWeight(paths[0]), g.PathWeight(paths[0])
	for _, p := range paths[1:] {
		w := g.PathWeight(p)
		if w < minW {
			minW = w
		}
		if w > maxW {
			maxW = w
		}
	}
	if spread := maxW - minW; spread > cfg.Budget.Tolerance {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("path weight spread %d exceeds tolerance %d (min %d, max %d)",
				spread, cfg.Budget.Tolerance, minW, maxW))
	}
}

// checkLayerFloor warns when the run came out shallower than configured.
func checkLayerFloor(g *rungraph.Graph, cfg *config.Config, r *Result) {
	end, ok := g.Nodes[g.EndID]
	if !ok {
		return
	}
	// interior layers sit between the start node and the terminal node
	layers := end.Layer - 1
	if layers < cfg.Structure.MinLayers {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("run has %d layers, below the configured minimum %d", layers, cfg.Structure.MinLayers))
	}
}
