// Package hclconf loads catalog documents and generator configuration
// from HCL files and translates them into the engine's models.
package hclconf

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Catalog document schema ---

// catalogDocument is the top-level structure of a catalog file.
type catalogDocument struct {
	Clusters []*clusterBlock `hcl:"cluster,block"`
	Zones    []*zoneBlock    `hcl:"zone,block"`
}

// clusterBlock is one `cluster` block.
type clusterBlock struct {
	ID     string   `hcl:"id,label"`
	Zones  []string `hcl:"zones"`
	Type   string   `hcl:"type"`
	Weight int      `hcl:"weight,optional"`

	Entrances []*entranceBlock `hcl:"entrance,block"`
	Exits     []*exitBlock     `hcl:"exit,block"`

	DefeatFlag    string `hcl:"defeat_flag,optional"`
	ReuseEntrance bool   `hcl:"reuse_entrance,optional"`
	ShareEntrance bool   `hcl:"share_entrance,optional"`
}

type entranceBlock struct {
	Gate string `hcl:"gate"`
	Zone string `hcl:"zone"`
}

type exitBlock struct {
	Gate   string `hcl:"gate"`
	Zone   string `hcl:"zone"`
	Unique bool   `hcl:"unique,optional"`
}

// zoneBlock carries display metadata for one zone.
type zoneBlock struct {
	ID   string `hcl:"id,label"`
	Map  string `hcl:"map,optional"`
	Name string `hcl:"name,optional"`
}

// --- Generator configuration schema ---

// configDocument is the top-level structure of a generator config file.
type configDocument struct {
	Budget       *budgetBlock       `hcl:"budget,block"`
	Requirements *requirementsBlock `hcl:"requirements,block"`
	Structure    *structureBlock    `hcl:"structure,block"`
}

type budgetBlock struct {
	TargetWeight int `hcl:"target_weight"`
	Tolerance    int `hcl:"tolerance"`
}

type requirementsBlock struct {
	LegacyDungeons int `hcl:"legacy_dungeons,optional"`
	BossArenas     int `hcl:"boss_arenas,optional"`
	MiniDungeons   int `hcl:"mini_dungeons,optional"`
}

// structureBlock shapes the run topology. The probability and ratio
// attributes decode as expressions so both integer and float literals
// are accepted; translation converts them through cty.
type structureBlock struct {
	MinLayers        int `hcl:"min_layers"`
	MaxLayers        int `hcl:"max_layers"`
	MaxParallelPaths int `hcl:"max_parallel_paths"`
	MaxBranches      int `hcl:"max_branches"`

	SplitProbability hcl.Expression `hcl:"split_probability,optional"`
	MergeProbability hcl.Expression `hcl:"merge_probability,optional"`
	MajorBossRatio   hcl.Expression `hcl:"major_boss_ratio,optional"`

	FirstLayerType      string   `hcl:"first_layer_type,optional"`
	FinalBossCandidates []string `hcl:"final_boss_candidates,optional"`
	FinalTier           int      `hcl:"final_tier"`
	MaxAttempts         int      `hcl:"max_attempts,optional"`
	HubCluster          string   `hcl:"hub_cluster,optional"`
}
