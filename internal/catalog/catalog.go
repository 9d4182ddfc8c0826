package catalog

import (
	"fmt"
)

// ZoneInfo is display metadata for a single zone, carried through for the
// external content writer.
type ZoneInfo struct {
	Map  string
	Name string
}

// Catalog indexes clusters by id and by content type. It is immutable
// after New, apart from the one-time MergeHub pre-processing step.
type Catalog struct {
	clusters map[string]*Cluster
	byType   map[ContentType][]*Cluster
	zones    map[string]ZoneInfo
}

// New builds a catalog from loaded clusters and the zone lookup table.
// Duplicate cluster ids are an error. The byType index preserves the
// input order, which keeps candidate sampling deterministic for a fixed
// document.
func New(clusters []*Cluster, zones map[string]ZoneInfo) (*Catalog, error) {
	c := &Catalog{
		clusters: make(map[string]*Cluster, len(clusters)),
		byType:   make(map[ContentType][]*Cluster),
		zones:    make(map[string]ZoneInfo, len(zones)),
	}
	for _, cl := range clusters {
		if cl.ID == "" {
			return nil, fmt.Errorf("catalog: cluster with empty id")
		}
		if _, ok := c.clusters[cl.ID]; ok {
			return nil, fmt.Errorf("catalog: duplicate cluster id %q", cl.ID)
		}
		c.clusters[cl.ID] = cl
		c.byType[cl.Type] = append(c.byType[cl.Type], cl)
	}
	for id, info := range zones {
		c.zones[id] = info
	}
	return c, nil
}

// Cluster returns the cluster with the given id.
func (c *Catalog) Cluster(id string) (*Cluster, bool) {
	cl, ok := c.clusters[id]
	return cl, ok
}

// ByType returns the clusters of a content type in document order. The
// returned slice is shared; callers must not mutate it.
func (c *Catalog) ByType(t ContentType) []*Cluster {
	return c.byType[t]
}

// Len returns the number of clusters in the catalog.
func (c *Catalog) Len() int {
	return len(c.clusters)
}

// Zone returns display metadata for a zone id.
func (c *Catalog) Zone(id string) (ZoneInfo, bool) {
	info, ok := c.zones[id]
	return info, ok
}

// MergeHub folds the named hub cluster's zones and gateways into the
// start cluster. This is a fixed pre-processing step that runs once,
// before any generation attempt; the hub cluster ceases to exist as a
// separate candidate afterwards.
func (c *Catalog) MergeHub(hubID string) error {
	hub, ok := c.clusters[hubID]
	if !ok {
		return fmt.Errorf("catalog: hub cluster %q: %w", hubID, ErrClusterNotFound)
	}
	starts := c.byType[TypeStart]
	if len(starts) == 0 {
		return fmt.Errorf("catalog: hub merge needs a start cluster: %w", ErrTypeMissing)
	}
	start := starts[0]
	if start == hub {
		return fmt.Errorf("catalog: hub cluster %q is the start cluster", hubID)
	}

	start.Zones = append(start.Zones, hub.Zones...)
	start.Entrances = append(start.Entrances, hub.Entrances...)
	start.Exits = append(start.Exits, hub.Exits...)
	start.UniqueExits = append(start.UniqueExits, hub.UniqueExits...)

	delete(c.clusters, hubID)
	typed := c.byType[hub.Type]
	for i, cl := range typed {
		if cl == hub {
			c.byType[hub.Type] = append(typed[:i], typed[i+1:]...)
			break
		}
	}
	return nil
}
