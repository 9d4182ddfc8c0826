// Package catalog holds the immutable cluster index and the fog-gate
// selection rules used by the topology engine. A catalog is loaded once
// per process and is safe to share across generation attempts; nothing
// in this package mutates it after construction, with the single
// exception of the pre-generation hub merge.
package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog lookups.
var (
	// ErrClusterNotFound indicates a lookup referenced an unknown cluster id.
	ErrClusterNotFound = errors.New("catalog: cluster not found")

	// ErrTypeMissing indicates a required content type (start or final boss)
	// has no clusters in the catalog.
	ErrTypeMissing = errors.New("catalog: required content type absent")
)

// ContentType classifies what a cluster contributes to a run. The set is
// closed: the planner and the topology engine switch over it exhaustively.
type ContentType int

const (
	TypeOther ContentType = iota
	TypeStart
	TypeFinalBoss
	TypeLegacyDungeon
	TypeMiniDungeon
	TypeBossArena
	TypeMajorBoss
)

var contentTypeNames = map[ContentType]string{
	TypeOther:         "other",
	TypeStart:         "start",
	TypeFinalBoss:     "final_boss",
	TypeLegacyDungeon: "legacy_dungeon",
	TypeMiniDungeon:   "mini_dungeon",
	TypeBossArena:     "boss_arena",
	TypeMajorBoss:     "major_boss",
}

// String returns the canonical lowercase name used in catalog documents.
func (t ContentType) String() string {
	if name, ok := contentTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ContentType(%d)", int(t))
}

// ParseContentType maps a catalog document tag to its ContentType. Unknown
// tags are an error rather than a silent fallback to TypeOther.
func ParseContentType(s string) (ContentType, error) {
	for t, name := range contentTypeNames {
		if name == s {
			return t, nil
		}
	}
	return TypeOther, fmt.Errorf("catalog: unknown content type %q", s)
}

// Gateway is one side of a fog gate. The same raw gate id can appear on
// both zones of a connection, so identity is the (GateID, Zone) pair.
type Gateway struct {
	GateID string
	Zone   string
	Unique bool
}

// Same reports whether two gateways refer to the same side of the same
// gate. The Unique flag is not part of identity.
func (g Gateway) Same(other Gateway) bool {
	return g.GateID == other.GateID && g.Zone == other.Zone
}

func (g Gateway) String() string {
	return g.GateID + "@" + g.Zone
}

// Cluster is a reusable group of zones with defined entry and exit
// gateways. Clusters are immutable once loaded; the topology engine only
// ever copies gateway slices out of them.
type Cluster struct {
	ID    string
	Zones []string
	Type  ContentType

	// Weight is the traversal cost used for path-budget accounting.
	Weight int

	Entrances []Gateway
	// Exits holds the non-unique exit gateways. Single-use exits live in
	// UniqueExits and never enter the normal exit pool.
	Exits       []Gateway
	UniqueExits []Gateway

	// DefeatFlag names the boss-defeat event flag, when the cluster has one.
	DefeatFlag string

	// ReuseEntrance allows entrances that were not consumed on the way in
	// to serve as additional exits.
	ReuseEntrance bool
	// ShareEntrance allows one entrance to be consumed by more than one
	// incoming edge during a merge.
	ShareEntrance bool
}

// SpansZone reports whether the cluster includes the given zone.
func (c *Cluster) SpansZone(zone string) bool {
	for _, z := range c.Zones {
		if z == zone {
			return true
		}
	}
	return false
}
