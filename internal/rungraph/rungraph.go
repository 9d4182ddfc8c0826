// Package rungraph holds the generated run: a directed acyclic graph of
// cluster nodes connected through consumed fog gates. The graph records
// everything the external content writer needs and nothing about how it
// was generated; branches and other engine state never land here.
package rungraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
)

var (
	// ErrDuplicateNode indicates an AddNode with an already-used id.
	ErrDuplicateNode = errors.New("rungraph: duplicate node id")

	// ErrUnknownNode indicates an edge endpoint that is not in the graph.
	ErrUnknownNode = errors.New("rungraph: unknown node id")
)

// Node is one placed cluster instance. Identity is the ID alone.
type Node struct {
	ID      string
	Cluster *catalog.Cluster

	// Layer is the node's depth; the start node is layer 0.
	Layer int
	// Tier is the difficulty tier assigned to the node's layer.
	Tier int

	// Entries lists the gateways consumed to reach this node, one per
	// incoming edge. Empty only for the start node.
	Entries []catalog.Gateway
	// Exits lists the gateways still open for further outgoing edges.
	Exits []catalog.Gateway
}

// Edge is one consumed fog-gate connection. Two edges between the same
// node pair through different gateways are distinct.
type Edge struct {
	From  string
	To    string
	Exit  catalog.Gateway
	Entry catalog.Gateway
}

// Graph is a completed or in-progress run graph.
type Graph struct {
	Seed    int64
	StartID string
	EndID   string

	Nodes map[string]*Node
	Edges []Edge

	// adjacency caches, maintained incrementally by AddEdge.
	out map[string]map[string]bool
	in  map[string]map[string]bool
}

// New returns an empty graph for the given seed.
func New(seed int64) *Graph {
	return &Graph{
		Seed:  seed,
		Nodes: make(map[string]*Node),
		out:   make(map[string]map[string]bool),
		in:    make(map[string]map[string]bool),
	}
}

// AddNode inserts a node; ids must be unique.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.Nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.Nodes[n.ID] = n
	return nil
}

// AddEdge inserts an edge between two existing nodes and updates the
// adjacency caches.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.Nodes[e.From]; !ok {
		return fmt.Errorf("%w: edge source %s", ErrUnknownNode, e.From)
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return fmt.Errorf("%w: edge target %s", ErrUnknownNode, e.To)
	}
	g.Edges = append(g.Edges, e)
	if g.out[e.From] == nil {
		g.out[e.From] = make(map[string]bool)
	}
	g.out[e.From][e.To] = true
	if g.in[e.To] == nil {
		g.in[e.To] = make(map[string]bool)
	}
	g.in[e.To][e.From] = true
	return nil
}

// IncomingCount returns the number of edges ending at the node.
func (g *Graph) IncomingCount(id string) int {
	n := 0
	for _, e := range g.Edges {
		if e.To == id {
			n++
		}
	}
	return n
}

// NodeIDs returns all node ids in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// successors returns the distinct targets of a node in sorted order.
// Parallel edges to the same target collapse to one successor.
func (g *Graph) successors(id string) []string {
	targets := g.out[id]
	out := make([]string, 0, len(targets))
	for t := range targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Paths enumerates every start-to-end node-id sequence by depth-first
// traversal, branching over distinct successors in sorted order so the
// result is deterministic. Safe to call repeatedly.
func (g *Graph) Paths() [][]string {
	if g.StartID == "" || g.EndID == "" {
		return nil
	}
	var paths [][]string
	var walk func(id string, trail []string)
	walk = func(id string, trail []string) {
		trail = append(trail, id)
		if id == g.EndID {
			path := make([]string, len(trail))
			copy(path, trail)
			paths = append(paths, path)
			return
		}
		for _, next := range g.successors(id) {
			walk(next, trail)
		}
	}
	walk(g.StartID, nil)
	return paths
}

// PathWeight sums the cluster weights along a path.
func (g *Graph) PathWeight(path []string) int {
	total := 0
	for _, id := range path {
		if n, ok := g.Nodes[id]; ok && n.Cluster != nil {
			total += n.Cluster.Weight
		}
	}
	return total
}

// ValidateStructure checks the core structural invariants: start and end
// markers present, edges strictly layer-increasing, every node reachable
// from start, and every node able to reach end. It returns one message
// per violation; an empty result means structurally valid.
func (g *Graph) ValidateStructure() []string {
	var problems []string

	start, startOK := g.Nodes[g.StartID]
	if g.StartID == "" || !startOK {
		problems = append(problems, "missing start node")
	}
	end, endOK := g.Nodes[g.EndID]
	if g.EndID == "" || !endOK {
		problems = append(problems, "missing end node")
	}
	if startOK && len(g.in[g.StartID]) > 0 {
		problems = append(problems, fmt.Sprintf("start node %s has incoming edges", start.ID))
	}
	if endOK && len(g.out[g.EndID]) > 0 {
		problems = append(problems, fmt.Sprintf("end node %s has outgoing edges", end.ID))
	}

	for _, e := range g.Edges {
		from, to := g.Nodes[e.From], g.Nodes[e.To]
		if from == nil || to == nil {
			problems = append(problems, fmt.Sprintf("edge %s->%s references unknown node", e.From, e.To))
			continue
		}
		if from.Layer >= to.Layer {
			problems = append(problems,
				fmt.Sprintf("edge %s->%s does not advance layers (%d >= %d)", e.From, e.To, from.Layer, to.Layer))
		}
	}

	if startOK {
		reached := g.bfs(g.StartID, g.out)
		for _, id := range g.NodeIDs() {
			if !reached[id] {
				problems = append(problems, fmt.Sprintf("node %s unreachable from start", id))
			}
		}
	}
	if endOK {
		reaches := g.bfs(g.EndID, g.in)
		for _, id := range g.NodeIDs() {
			if !reaches[id] {
				problems = append(problems, fmt.Sprintf("node %s cannot reach end", id))
			}
		}
	}

	return problems
}

// bfs walks the given adjacency direction from origin.
func (g *Graph) bfs(origin string, adjacency map[string]map[string]bool) map[string]bool {
	seen := map[string]bool{origin: true}
	queue := []string{origin}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for next := range adjacency[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
