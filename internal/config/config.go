// Package config defines the generator configuration model. The model is
// format-agnostic; the HCL loader translates documents into it.
package config

import (
	"errors"
	"fmt"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/planner"
)

// ErrInvalid indicates a structural contradiction in the configuration.
// All such contradictions are detected before generation starts.
var ErrInvalid = errors.New("config: invalid configuration")

// DefaultMaxAttempts bounds the reroll loop when the seed is the
// random-seed sentinel and no explicit cap is configured.
const DefaultMaxAttempts = 100

// Budget is the per-path weight target and its tolerance window.
type Budget struct {
	TargetWeight int
	Tolerance    int
}

// Requirements are the minimum content quotas a run must contain.
type Requirements struct {
	LegacyDungeons int
	BossArenas     int
	MiniDungeons   int
}

// Structure shapes the run topology.
type Structure struct {
	MinLayers int
	MaxLayers int

	// MaxParallelPaths caps the number of simultaneously live branches.
	MaxParallelPaths int
	// MaxBranches caps the fan-out of a single split.
	MaxBranches int

	SplitProbability float64
	MergeProbability float64

	// FirstLayerType, when non-nil, pins the content type of layer 0.
	FirstLayerType *catalog.ContentType

	// MajorBossRatio is the approximate fraction of non-final layers
	// upgraded to major-boss slots.
	MajorBossRatio float64

	// FinalBossCandidates restricts the terminal cluster to these ids.
	// Empty means any final-boss cluster in the catalog.
	FinalBossCandidates []string

	// FinalTier is the tier of the terminal node, in [1, 28].
	FinalTier int

	// MaxAttempts bounds the reroll loop in random-seed mode.
	MaxAttempts int

	// HubCluster, when set, names a cluster merged into the start cluster
	// before generation.
	HubCluster string
}

// Config is the full generator configuration.
type Config struct {
	Budget       Budget
	Requirements Requirements
	Structure    Structure
}

// Validate checks internal consistency. Catalog-dependent rules live in
// ValidateCatalog.
func (c *Config) Validate() error {
	s := &c.Structure
	switch {
	case s.MinLayers < 1:
		return fmt.Errorf("%w: min_layers must be at least 1, got %d", ErrInvalid, s.MinLayers)
	case s.MaxLayers < s.MinLayers:
		return fmt.Errorf("%w: max_layers %d below min_layers %d", ErrInvalid, s.MaxLayers, s.MinLayers)
	case s.MaxParallelPaths < 1:
		return fmt.Errorf("%w: max_parallel_paths must be at least 1, got %d", ErrInvalid, s.MaxParallelPaths)
	case s.MaxBranches >= 2 && s.MaxParallelPaths < 2:
		return fmt.Errorf("%w: max_branches %d needs max_parallel_paths of at least 2", ErrInvalid, s.MaxBranches)
	case s.SplitProbability < 0 || s.SplitProbability > 1:
		return fmt.Errorf("%w: split_probability %v outside [0, 1]", ErrInvalid, s.SplitProbability)
	case s.MergeProbability < 0 || s.MergeProbability > 1:
		return fmt.Errorf("%w: merge_probability %v outside [0, 1]", ErrInvalid, s.MergeProbability)
	case s.SplitProbability+s.MergeProbability > 1:
		return fmt.Errorf("%w: split_probability and merge_probability sum above 1", ErrInvalid)
	case s.MajorBossRatio < 0 || s.MajorBossRatio > 1:
		return fmt.Errorf("%w: major_boss_ratio %v outside [0, 1]", ErrInvalid, s.MajorBossRatio)
	case s.FinalTier < 1 || s.FinalTier > planner.MaxTier:
		return fmt.Errorf("%w: final_tier %d outside [1, %d]", ErrInvalid, s.FinalTier, planner.MaxTier)
	case s.MaxAttempts < 1:
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalid, s.MaxAttempts)
	}
	if c.Budget.Tolerance < 0 {
		return fmt.Errorf("%w: budget tolerance must not be negative", ErrInvalid)
	}
	if c.Requirements.LegacyDungeons < 0 || c.Requirements.BossArenas < 0 || c.Requirements.MiniDungeons < 0 {
		return fmt.Errorf("%w: requirement counts must not be negative", ErrInvalid)
	}
	return nil
}

// ValidateCatalog checks rules that need the loaded catalog: final-boss
// candidates must exist and be final-boss clusters, and a configured hub
// cluster must exist.
func (c *Config) ValidateCatalog(cat *catalog.Catalog) error {
	for _, id := range c.Structure.FinalBossCandidates {
		cl, ok := cat.Cluster(id)
		if !ok {
			return fmt.Errorf("%w: unknown final-boss candidate %q", ErrInvalid, id)
		}
		if cl.Type != catalog.TypeFinalBoss {
			return fmt.Errorf("%w: final-boss candidate %q has type %s", ErrInvalid, id, cl.Type)
		}
	}
	if hub := c.Structure.HubCluster; hub != "" {
		if _, ok := cat.Cluster(hub); !ok {
			return fmt.Errorf("%w: unknown hub cluster %q", ErrInvalid, hub)
		}
	}
	return nil
}
