package catalog

import (
	"math/rand"
)

// UsableExits returns the exits still open from a cluster after the
// given entrance was consumed. A gateway is two-sided, so only the exact
// (gate, zone) pair that served as the entrance is removed; exits owned
// by the other zones of a multi-zone cluster survive. When the cluster
// allows entrance reuse, its remaining entrances join the pool.
func UsableExits(c *Cluster, consumed Gateway) []Gateway {
	out := make([]Gateway, 0, len(c.Exits)+len(c.Entrances))
	for _, ex := range c.Exits {
		if ex.Same(consumed) {
			continue
		}
		out = append(out, ex)
	}
	if c.ReuseEntrance {
		for _, en := range c.Entrances {
			if en.Same(consumed) {
				continue
			}
			out = append(out, en)
		}
	}
	return out
}

// HasUsableExit reports whether at least one entrance, if consumed,
// would leave the cluster with a remaining exit. A cluster where no
// entrance survives is a dead end and must never be placed on a
// non-terminal layer.
func HasUsableExit(c *Cluster) bool {
	for _, en := range c.Entrances {
		if len(UsableExits(c, en)) > 0 {
			return true
		}
	}
	return false
}

// PickEntryWithExits uniformly samples an entrance that leaves at least
// one exit open. The second return is false when no entrance survives;
// callers must treat that as a hard failure for the candidate.
func PickEntryWithExits(c *Cluster, rng *rand.Rand) (Gateway, bool) {
	viable := make([]Gateway, 0, len(c.Entrances))
	for _, en := range c.Entrances {
		if len(UsableExits(c, en)) > 0 {
			viable = append(viable, en)
		}
	}
	if len(viable) == 0 {
		return Gateway{}, false
	}
	return viable[rng.Intn(len(viable))], true
}

// PickCandidate uniformly samples a cluster whose zones are all unused.
// With requireExits set, candidates without a survivable entrance are
// skipped as well. Returns false on exhaustion.
func PickCandidate(candidates []*Cluster, usedZones map[string]bool, rng *rand.Rand, requireExits bool) (*Cluster, bool) {
	viable := make([]*Cluster, 0, len(candidates))
	for _, c := range candidates {
		if anyZoneUsed(c, usedZones) {
			continue
		}
		if requireExits && !HasUsableExit(c) {
			continue
		}
		viable = append(viable, c)
	}
	if len(viable) == 0 {
		return nil, false
	}
	return viable[rng.Intn(len(viable))], true
}

func anyZoneUsed(c *Cluster, usedZones map[string]bool) bool {
	for _, z := range c.Zones {
		if usedZones[z] {
			return true
		}
	}
	return false
}
