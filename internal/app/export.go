package app

import (
	"encoding/json"
	"fmt"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/rungraph"
)

// runExport is the serialized shape handed to the content writer.
type runExport struct {
	Seed      int64          `json:"seed"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Nodes     []nodeExport   `json:"nodes"`
	Edges     []edgeExport   `json:"edges"`
	Paths     [][]string     `json:"paths"`
	ZoneTiers map[string]int `json:"zone_tiers"`
}

type nodeExport struct {
	ID         string       `json:"id"`
	Cluster    string       `json:"cluster"`
	Type       string       `json:"type"`
	Layer      int          `json:"layer"`
	Tier       int          `json:"tier"`
	Weight     int          `json:"weight"`
	DefeatFlag string       `json:"defeat_flag,omitempty"`
	Zones      []zoneExport `json:"zones"`
}

type zoneExport struct {
	ID   string `json:"id"`
	Map  string `json:"map,omitempty"`
	Name string `json:"name,omitempty"`
}

type edgeExport struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ExitGate  string `json:"exit_gate"`
	ExitZone  string `json:"exit_zone"`
	EntryGate string `json:"entry_gate"`
	EntryZone string `json:"entry_zone"`
}

// writeRun serializes the run graph, its paths, and the per-zone tier
// assignments as indented JSON on the app's output writer.
func (a *App) writeRun(cat *catalog.Catalog, g *rungraph.Graph) error {
	export := runExport{
		Seed:      g.Seed,
		Start:     g.StartID,
		End:       g.EndID,
		Paths:     g.Paths(),
		ZoneTiers: make(map[string]int),
	}

	for _, id := range g.NodeIDs() {
		node := g.Nodes[id]
		ne := nodeExport{
			ID:         node.ID,
			Cluster:    node.Cluster.ID,
			Type:       node.Cluster.Type.String(),
			Layer:      node.Layer,
			Tier:       node.Tier,
			Weight:     node.Cluster.Weight,
			DefeatFlag: node.Cluster.DefeatFlag,
		}
		for _, z := range node.Cluster.Zones {
			ze := zoneExport{ID: z}
			if info, ok := cat.Zone(z); ok {
				ze.Map = info.Map
				ze.Name = info.Name
			}
			ne.Zones = append(ne.Zones, ze)
			export.ZoneTiers[z] = node.Tier
		}
		export.Nodes = append(export.Nodes, ne)
	}

	for _, e := range g.Edges {
		export.Edges = append(export.Edges, edgeExport{
			From:      e.From,
			To:        e.To,
			ExitGate:  e.Exit.GateID,
			ExitZone:  e.Exit.Zone,
			EntryGate: e.Entry.GateID,
			EntryZone: e.Entry.Zone,
		})
	}

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode run graph: %w", err)
	}
	return nil
}
