package hclconf

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
)

// translateCluster converts a decoded cluster block into the catalog
// model, splitting unique exits off the normal exit pool.
func translateCluster(block *clusterBlock) (*catalog.Cluster, error) {
	contentType, err := catalog.ParseContentType(block.Type)
	if err != nil {
		return nil, fmt.Errorf("cluster %q: %w", block.ID, err)
	}
	if len(block.Zones) == 0 {
		return nil, fmt.Errorf("cluster %q: no zones", block.ID)
	}
	weight := block.Weight
	if weight == 0 {
		weight = 1
	}
	if weight < 0 {
		return nil, fmt.Errorf("cluster %q: negative weight %d", block.ID, weight)
	}

	cl := &catalog.Cluster{
		ID:            block.ID,
		Zones:         block.Zones,
		Type:          contentType,
		Weight:        weight,
		DefeatFlag:    block.DefeatFlag,
		ReuseEntrance: block.ReuseEntrance,
		ShareEntrance: block.ShareEntrance,
	}
	for _, en := range block.Entrances {
		cl.Entrances = append(cl.Entrances, catalog.Gateway{GateID: en.Gate, Zone: en.Zone})
	}
	for _, ex := range block.Exits {
		gw := catalog.Gateway{GateID: ex.Gate, Zone: ex.Zone, Unique: ex.Unique}
		if ex.Unique {
			cl.UniqueExits = append(cl.UniqueExits, gw)
		} else {
			cl.Exits = append(cl.Exits, gw)
		}
	}
	return cl, nil
}

// translateConfig converts a decoded config document into the config
// model, applying defaults for optional attributes.
func translateConfig(doc *configDocument) (*config.Config, error) {
	cfg := &config.Config{}

	if doc.Budget != nil {
		cfg.Budget = config.Budget{
			TargetWeight: doc.Budget.TargetWeight,
			Tolerance:    doc.Budget.Tolerance,
		}
	}
	if doc.Requirements != nil {
		cfg.Requirements = config.Requirements{
			LegacyDungeons: doc.Requirements.LegacyDungeons,
			BossArenas:     doc.Requirements.BossArenas,
			MiniDungeons:   doc.Requirements.MiniDungeons,
		}
	}
	if doc.Structure == nil {
		return nil, fmt.Errorf("missing structure block")
	}

	s := doc.Structure
	split, err := floatAttr(s.SplitProbability, 0)
	if err != nil {
		return nil, fmt.Errorf("split_probability: %w", err)
	}
	merge, err := floatAttr(s.MergeProbability, 0)
	if err != nil {
		return nil, fmt.Errorf("merge_probability: %w", err)
	}
	ratio, err := floatAttr(s.MajorBossRatio, 0)
	if err != nil {
		return nil, fmt.Errorf("major_boss_ratio: %w", err)
	}

	var firstLayer *catalog.ContentType
	if s.FirstLayerType != "" {
		t, err := catalog.ParseContentType(s.FirstLayerType)
		if err != nil {
			return nil, fmt.Errorf("first_layer_type: %w", err)
		}
		firstLayer = &t
	}

	maxAttempts := s.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = config.DefaultMaxAttempts
	}

	cfg.Structure = config.Structure{
		MinLayers:           s.MinLayers,
		MaxLayers:           s.MaxLayers,
		MaxParallelPaths:    s.MaxParallelPaths,
		MaxBranches:         s.MaxBranches,
		SplitProbability:    split,
		MergeProbability:    merge,
		FirstLayerType:      firstLayer,
		MajorBossRatio:      ratio,
		FinalBossCandidates: s.FinalBossCandidates,
		FinalTier:           s.FinalTier,
		MaxAttempts:         maxAttempts,
		HubCluster:          s.HubCluster,
	}
	return cfg, nil
}

// floatAttr evaluates an optional numeric attribute expression through
// cty so both integer and float literals are accepted.
func floatAttr(expr hcl.Expression, def float64) (float64, error) {
	if expr == nil {
		return def, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, diags
	}
	if val.IsNull() {
		return def, nil
	}
	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		return 0, err
	}
	return f, nil
}
