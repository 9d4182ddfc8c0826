// Package topology grows the run graph layer by layer. A set of live
// branches tracks the frontier; each planned layer advances the set with
// one of three operations (passant, split, merge) and the final boss
// closes every surviving branch into a single terminal node.
package topology

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
	"github.com/rbignon/speedfog-sub000/internal/ctxlog"
	"github.com/rbignon/speedfog-sub000/internal/planner"
	"github.com/rbignon/speedfog-sub000/internal/rungraph"
)

// Generation failures. All of them abort the current attempt; only the
// retry driver may recover, and only by rerolling a fresh seed.
var (
	// ErrCandidateExhausted indicates no cluster satisfies the type,
	// zone-disjointness, and exit-survivability constraints at some step.
	ErrCandidateExhausted = errors.New("topology: no viable cluster candidate")

	// ErrNoValidEntry indicates a chosen cluster has no entrance that
	// leaves a usable exit.
	ErrNoValidEntry = errors.New("topology: no entrance leaves a usable exit")

	// ErrNoExitAvailable indicates a frontier node ran out of exits.
	ErrNoExitAvailable = errors.New("topology: no exit available at frontier")

	// ErrMergeInfeasible indicates no branch subset can jointly satisfy
	// any merge target's gateway requirements.
	ErrMergeInfeasible = errors.New("topology: no feasible merge")
)

// operation is the per-layer topology move.
type operation int

const (
	opPassant operation = iota
	opSplit
	opMerge
)

// branch is a generation-time cursor: the node at its frontier and the
// one exit gateway it has reserved there. Branches never outlive the
// engine run.
type branch struct {
	id     int
	nodeID string
	exit   catalog.Gateway
}

// Engine builds one run graph from a planned layer sequence. An engine
// instance is single-use: state is reset by Generate and every random
// decision draws from the one rng it was given.
type Engine struct {
	cat *catalog.Catalog
	cfg *config.Config
	rng *rand.Rand

	graph     *rungraph.Graph
	branches  []*branch
	usedZones map[string]bool
	branchSeq int
	nodeSeq   int
}

// New returns an engine bound to a catalog, a configuration, and the
// attempt's random stream.
func New(cat *catalog.Catalog, cfg *config.Config, rng *rand.Rand) *Engine {
	return &Engine{cat: cat, cfg: cfg, rng: rng}
}

// Generate consumes the planned layers and returns the completed graph.
// On any failure the partial graph is discarded and the error names the
// layer and branch where generation stalled.
func (e *Engine) Generate(ctx context.Context, seed int64, layers []planner.Layer) (*rungraph.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	e.graph = rungraph.New(seed)
	e.branches = nil
	e.usedZones = make(map[string]bool)
	e.branchSeq = 0
	e.nodeSeq = 0

	if err := e.placeStart(); err != nil {
		return nil, err
	}
	logger.Debug("start placed", "node", e.graph.StartID, "branches", len(e.branches))

	for i, layer := range layers {
		op := e.chooseOp(layer)
		var err error
		switch op {
		case opSplit:
			err = e.splitLayer(i, layer)
		case opMerge:
			err = e.mergeLayer(i, layer)
		default:
			err = e.passantLayer(i, layer)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("layer placed",
			"layer", i+1, "type", layer.Type.String(), "tier", layer.Tier, "branches", len(e.branches))
	}

	if err := e.placeFinalBoss(len(layers)); err != nil {
		return nil, err
	}
	logger.Debug("final boss placed", "node", e.graph.EndID, "nodes", len(e.graph.Nodes))

	return e.graph, nil
}

// placeStart instantiates the start node and opens one branch per
// available exit, capped by the configured width.
func (e *Engine) placeStart() error {
	starts := e.cat.ByType(catalog.TypeStart)
	if len(starts) == 0 {
		return fmt.Errorf("start cluster: %w", catalog.ErrTypeMissing)
	}
	c := starts[e.rng.Intn(len(starts))]

	node := &rungraph.Node{
		ID:      e.nodeID(c),
		Cluster: c,
		Layer:   0,
		Tier:    1,
		Exits:   copyGateways(c.Exits),
	}
	if err := e.graph.AddNode(node); err != nil {
		return err
	}
	e.graph.StartID = node.ID
	e.claimZones(c)

	for len(e.branches) < e.cfg.Structure.MaxParallelPaths && len(node.Exits) > 0 {
		ex, _ := e.takeExit(node)
		e.branches = append(e.branches, e.newBranch(node.ID, ex))
	}
	if len(e.branches) == 0 {
		return fmt.Errorf("start cluster %s: %w", c.ID, ErrNoExitAvailable)
	}
	return nil
}

// chooseOp rolls the per-layer operation. Exactly one roll happens per
// layer regardless of outcome, keeping the random call order fixed.
func (e *Engine) chooseOp(layer planner.Layer) operation {
	s := &e.cfg.Structure
	roll := e.rng.Float64()
	switch {
	case roll < s.SplitProbability:
		if e.canSplit() {
			return opSplit
		}
	case roll < s.SplitProbability+s.MergeProbability:
		if e.canMerge(layer) {
			return opMerge
		}
	}
	return opPassant
}

// canSplit holds when the width caps leave room and some frontier node
// still has a spare exit beyond its branch's reservation.
func (e *Engine) canSplit() bool {
	s := &e.cfg.Structure
	if s.MaxBranches < 2 || len(e.branches) >= s.MaxParallelPaths {
		return false
	}
	for _, b := range e.branches {
		if len(e.graph.Nodes[b.nodeID].Exits) > 0 {
			return true
		}
	}
	return false
}

// canMerge holds when at least one pair of branches on distinct frontier
// nodes has a feasible joint target of the layer's type. Merging a group
// of m branches leaves len-m+1 alive, so the one-branch floor holds by
// construction.
func (e *Engine) canMerge(layer planner.Layer) bool {
	if len(e.branches) < 2 {
		return false
	}
	group := e.mergeGroup(2)
	if group == nil {
		return false
	}
	return len(e.mergeTargets(layer, len(group))) > 0
}

// passantLayer advances every branch 1:1 into a fresh cluster.
func (e *Engine) passantLayer(idx int, layer planner.Layer) error {
	for _, b := range e.branches {
		if err := e.advanceBranch(b, idx, layer); err != nil {
			return err
		}
	}
	return nil
}

// advanceBranch moves one branch into a new cluster of the layer's type,
// consuming the branch's reserved exit and reserving a fresh one.
func (e *Engine) advanceBranch(b *branch, idx int, layer planner.Layer) error {
	c, ok := catalog.PickCandidate(e.cat.ByType(layer.Type), e.usedZones, e.rng, true)
	if !ok {
		return fmt.Errorf("layer %d branch %d (%s): %w", idx+1, b.id, layer.Type, ErrCandidateExhausted)
	}
	node, err := e.enterCluster(c, idx+1, layer.Tier, b)
	if err != nil {
		return fmt.Errorf("layer %d branch %d: %w", idx+1, b.id, err)
	}
	ex, ok := e.takeExit(node)
	if !ok {
		return fmt.Errorf("layer %d branch %d: node %s: %w", idx+1, b.id, node.ID, ErrNoExitAvailable)
	}
	b.nodeID = node.ID
	b.exit = ex
	return nil
}

// enterCluster instantiates a node for the cluster, wires the edge from
// the branch's frontier, and claims the cluster's zones.
func (e *Engine) enterCluster(c *catalog.Cluster, layerIdx, tier int, from *branch) (*rungraph.Node, error) {
	entry, ok := catalog.PickEntryWithExits(c, e.rng)
	if !ok {
		return nil, fmt.Errorf("cluster %s: %w", c.ID, ErrNoValidEntry)
	}
	node := &rungraph.Node{
		ID:      e.nodeID(c),
		Cluster: c,
		Layer:   layerIdx,
		Tier:    tier,
		Entries: []catalog.Gateway{entry},
		Exits:   catalog.UsableExits(c, entry),
	}
	if err := e.graph.AddNode(node); err != nil {
		return nil, err
	}
	edge := rungraph.Edge{From: from.nodeID, To: node.ID, Exit: from.exit, Entry: entry}
	if err := e.graph.AddEdge(edge); err != nil {
		return nil, err
	}
	e.claimZones(c)
	return node, nil
}

// splitLayer replaces one branch with 2..max_branches children fanning
// out through distinct exits of the splitting node; every other branch
// advances normally.
func (e *Engine) splitLayer(idx int, layer planner.Layer) error {
	s := &e.cfg.Structure

	splittable := make([]int, 0, len(e.branches))
	for i, b := range e.branches {
		if len(e.graph.Nodes[b.nodeID].Exits) > 0 {
			splittable = append(splittable, i)
		}
	}
	// canSplit vouched for at least one
	sp := splittable[e.rng.Intn(len(splittable))]
	splitter := e.branches[sp]
	node := e.graph.Nodes[splitter.nodeID]

	room := s.MaxParallelPaths - len(e.branches) + 1
	fanMax := min(s.MaxBranches, 1+len(node.Exits), room)
	fan := 2 + e.rng.Intn(fanMax-1)

	exits := []catalog.Gateway{splitter.exit}
	for len(exits) < fan {
		ex, _ := e.takeExit(node)
		exits = append(exits, ex)
	}

	next := make([]*branch, 0, len(e.branches)+fan-1)
	for i, b := range e.branches {
		if i != sp {
			if err := e.advanceBranch(b, idx, layer); err != nil {
				return err
			}
			next = append(next, b)
			continue
		}
		for _, ex := range exits {
			child := e.newBranch(splitter.nodeID, ex)
			if err := e.advanceBranch(child, idx, layer); err != nil {
				return err
			}
			next = append(next, child)
		}
	}
	e.branches = next
	return nil
}

// mergeLayer unifies a group of branches into one node of the layer's
// type; every branch outside the group advances normally. The group is
// the first feasible subset in ascending branch order (one branch per
// distinct frontier node), a documented implementation choice.
func (e *Engine) mergeLayer(idx int, layer planner.Layer) error {
	size := 2
	if n := len(e.branches); n > 2 {
		size = 2 + e.rng.Intn(n-1)
	}

	var group []*branch
	var targets []*catalog.Cluster
	for sz := size; sz >= 2; sz-- {
		group = e.mergeGroup(sz)
		if group == nil {
			continue
		}
		targets = e.mergeTargets(layer, len(group))
		if len(targets) > 0 {
			break
		}
		group = nil
	}
	if group == nil {
		return fmt.Errorf("layer %d: %w", idx+1, ErrMergeInfeasible)
	}
	target := targets[e.rng.Intn(len(targets))]

	entries, ok := e.assignEntrances(target, len(group))
	if !ok {
		return fmt.Errorf("layer %d: cluster %s: %w", idx+1, target.ID, ErrMergeInfeasible)
	}

	node := &rungraph.Node{
		ID:      e.nodeID(target),
		Cluster: target,
		Layer:   idx + 1,
		Tier:    layer.Tier,
		Entries: entries,
		Exits:   usableExitsAfter(target, entries),
	}
	if err := e.graph.AddNode(node); err != nil {
		return err
	}
	inGroup := make(map[*branch]bool, len(group))
	for i, b := range group {
		edge := rungraph.Edge{From: b.nodeID, To: node.ID, Exit: b.exit, Entry: entries[i]}
		if err := e.graph.AddEdge(edge); err != nil {
			return err
		}
		inGroup[b] = true
	}
	e.claimZones(target)

	ex, ok := e.takeExit(node)
	if !ok {
		return fmt.Errorf("layer %d: node %s: %w", idx+1, node.ID, ErrNoExitAvailable)
	}
	merged := e.newBranch(node.ID, ex)

	next := make([]*branch, 0, len(e.branches)-len(group)+1)
	placed := false
	for _, b := range e.branches {
		if inGroup[b] {
			if !placed {
				next = append(next, merged)
				placed = true
			}
			continue
		}
		if err := e.advanceBranch(b, idx, layer); err != nil {
			return err
		}
		next = append(next, b)
	}
	e.branches = next
	return nil
}

// mergeGroup collects up to size branches with pairwise-distinct
// frontier nodes, scanning in ascending order. Nil when fewer than two
// qualify.
func (e *Engine) mergeGroup(size int) []*branch {
	group := make([]*branch, 0, size)
	seen := make(map[string]bool, size)
	for _, b := range e.branches {
		if seen[b.nodeID] {
			continue
		}
		seen[b.nodeID] = true
		group = append(group, b)
		if len(group) == size {
			break
		}
	}
	if len(group) < 2 {
		return nil
	}
	return group
}

// mergeTargets lists clusters of the layer's type that can jointly
// absorb the group: unused zones, enough entrances (or a shareable one),
// and at least one exit surviving the joint consumption.
func (e *Engine) mergeTargets(layer planner.Layer, size int) []*catalog.Cluster {
	var out []*catalog.Cluster
	for _, c := range e.cat.ByType(layer.Type) {
		if anyZoneUsed(c, e.usedZones) {
			continue
		}
		if len(c.Entrances) < size && !(c.ShareEntrance && len(c.Entrances) > 0) {
			continue
		}
		consumed := c.Entrances
		if len(consumed) > size {
			consumed = consumed[:size]
		}
		if len(usableExitsAfter(c, consumed)) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// assignEntrances picks n entrances for a merge, shuffled for variety.
// Entrances are distinct while the cluster has enough; a shareable
// cluster cycles through them once they run out.
func (e *Engine) assignEntrances(c *catalog.Cluster, n int) ([]catalog.Gateway, bool) {
	if len(c.Entrances) == 0 {
		return nil, false
	}
	if len(c.Entrances) < n && !c.ShareEntrance {
		return nil, false
	}
	pool := copyGateways(c.Entrances)
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	out := make([]catalog.Gateway, n)
	for i := 0; i < n; i++ {
		out[i] = pool[i%len(pool)]
	}
	return out, true
}

// placeFinalBoss force-merges every remaining branch into the terminal
// node. Branches sharing a frontier node collapse to one edge so no
// (source, target) pair repeats; the terminal node may share a single
// entrance across branches since nothing continues past it.
func (e *Engine) placeFinalBoss(layerCount int) error {
	var cands []*catalog.Cluster
	if ids := e.cfg.Structure.FinalBossCandidates; len(ids) > 0 {
		for _, id := range ids {
			if c, ok := e.cat.Cluster(id); ok {
				cands = append(cands, c)
			}
		}
	} else {
		cands = e.cat.ByType(catalog.TypeFinalBoss)
	}
	if len(cands) == 0 {
		return fmt.Errorf("final boss: %w", catalog.ErrTypeMissing)
	}

	viable := make([]*catalog.Cluster, 0, len(cands))
	for _, c := range cands {
		if !anyZoneUsed(c, e.usedZones) && len(c.Entrances) > 0 {
			viable = append(viable, c)
		}
	}
	if len(viable) == 0 {
		return fmt.Errorf("final boss: %w", ErrCandidateExhausted)
	}
	c := viable[e.rng.Intn(len(viable))]

	// mergeGroup is nil only when the branches span a single frontier
	// node; one edge from it closes the run without repeating a
	// (source, target) pair.
	group := e.mergeGroup(len(e.branches))
	if group == nil {
		group = e.branches[:1]
	}

	pool := copyGateways(c.Entrances)
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	node := &rungraph.Node{
		ID:      e.nodeID(c),
		Cluster: c,
		Layer:   layerCount + 1,
		Tier:    planner.ClampTier(e.cfg.Structure.FinalTier),
	}
	if err := e.graph.AddNode(node); err != nil {
		return err
	}
	for i, b := range group {
		entry := pool[i%len(pool)]
		node.Entries = append(node.Entries, entry)
		edge := rungraph.Edge{From: b.nodeID, To: node.ID, Exit: b.exit, Entry: entry}
		if err := e.graph.AddEdge(edge); err != nil {
			return err
		}
	}
	e.claimZones(c)
	e.graph.EndID = node.ID
	e.branches = nil
	return nil
}

func (e *Engine) newBranch(nodeID string, exit catalog.Gateway) *branch {
	e.branchSeq++
	return &branch{id: e.branchSeq, nodeID: nodeID, exit: exit}
}

func (e *Engine) nodeID(c *catalog.Cluster) string {
	e.nodeSeq++
	return fmt.Sprintf("n%02d_%s", e.nodeSeq, c.ID)
}

func (e *Engine) claimZones(c *catalog.Cluster) {
	for _, z := range c.Zones {
		e.usedZones[z] = true
	}
}

// takeExit reserves and removes one exit from a node's remaining pool.
func (e *Engine) takeExit(node *rungraph.Node) (catalog.Gateway, bool) {
	if len(node.Exits) == 0 {
		return catalog.Gateway{}, false
	}
	i := e.rng.Intn(len(node.Exits))
	ex := node.Exits[i]
	node.Exits = append(node.Exits[:i], node.Exits[i+1:]...)
	return ex, true
}

// usableExitsAfter is the multi-entrance form of catalog.UsableExits.
func usableExitsAfter(c *catalog.Cluster, consumed []catalog.Gateway) []catalog.Gateway {
	out := make([]catalog.Gateway, 0, len(c.Exits)+len(c.Entrances))
	for _, ex := range c.Exits {
		if containsGateway(consumed, ex) {
			continue
		}
		out = append(out, ex)
	}
	if c.ReuseEntrance {
		for _, en := range c.Entrances {
			if containsGateway(consumed, en) {
				continue
			}
			out = append(out, en)
		}
	}
	return out
}

func containsGateway(gws []catalog.Gateway, g catalog.Gateway) bool {
	for _, other := range gws {
		if other.Same(g) {
			return true
		}
	}
	return false
}

func anyZoneUsed(c *catalog.Cluster, used map[string]bool) bool {
	for _, z := range c.Zones {
		if used[z] {
			return true
		}
	}
	return false
}

func copyGateways(gws []catalog.Gateway) []catalog.Gateway {
	out := make([]catalog.Gateway, len(gws))
	copy(out, gws)
	return out
}
