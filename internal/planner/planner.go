// Package planner decides what each layer of a run contains before any
// topology is built: one content type and one difficulty tier per layer.
package planner

import (
	"math"
	"math/rand"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
)

// MaxTier is the hard ceiling on difficulty tiers.
const MaxTier = 28

// Layer is one planned slot in the run: its content type and the
// difficulty tier the writer should scale contents to.
type Layer struct {
	Type catalog.ContentType
	Tier int
}

// Quotas are the minimum per-type layer counts a plan must satisfy.
type Quotas struct {
	LegacyDungeons int
	BossArenas     int
	MiniDungeons   int
}

// Options tune a plan beyond the quotas.
type Options struct {
	TotalLayers int
	// FinalTier is the tier of the last layer; interior layers
	// interpolate toward it. Clamped into [1, MaxTier].
	FinalTier int
	// MajorBossRatio upgrades roughly this fraction of padding layers to
	// major-boss slots. The last layer is never eligible.
	MajorBossRatio float64
	// FirstLayerType, when non-nil, pins the type of layer 0.
	FirstLayerType *catalog.ContentType
}

// ClampTier bounds a configured tier into the valid [1, MaxTier] range.
func ClampTier(tier int) int {
	if tier < 1 {
		return 1
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}

// ComputeTier interpolates a layer's tier linearly between 1 and
// finalTier. It is non-decreasing in layerIndex for a fixed totalLayers,
// returns 1 for a single-layer run, and is always within [1, finalTier].
func ComputeTier(layerIndex, totalLayers, finalTier int) int {
	finalTier = ClampTier(finalTier)
	if totalLayers <= 1 {
		return 1
	}
	frac := float64(layerIndex) / float64(totalLayers-1)
	tier := int(math.Round(1 + frac*float64(finalTier-1)))
	if tier < 1 {
		return 1
	}
	if tier > finalTier {
		return finalTier
	}
	return tier
}

// Plan produces the ordered layer sequence for one attempt. The output
// always has exactly opts.TotalLayers entries and honors the quota
// minimums: when the quota multiset exceeds the layer count it is
// shuffled and truncated, otherwise the remainder is padded with
// mini-dungeon slots. Major-boss upgrades only ever replace padding, so
// quota counts survive them, and the final layer is never upgraded.
// Because the ratio applies to padding slots rather than to the whole
// run, the expected number of upgrades is MajorBossRatio times the
// padding count, which is below MajorBossRatio times TotalLayers
// whenever quotas fill part of the plan.
func Plan(req Quotas, opts Options, rng *rand.Rand) []Layer {
	total := opts.TotalLayers
	if total <= 0 {
		return nil
	}

	types := planTypes(req, total, rng, opts.MajorBossRatio)

	if opts.FirstLayerType != nil {
		pinFirst(types, *opts.FirstLayerType)
	}

	layers := make([]Layer, total)
	for i, t := range types {
		layers[i] = Layer{Type: t, Tier: ComputeTier(i, total, opts.FinalTier)}
	}
	return layers
}

// planTypes builds and arranges the content-type multiset.
func planTypes(req Quotas, total int, rng *rand.Rand, majorBossRatio float64) []catalog.ContentType {
	required := make([]catalog.ContentType, 0, total)
	for i := 0; i < req.LegacyDungeons; i++ {
		required = append(required, catalog.TypeLegacyDungeon)
	}
	for i := 0; i < req.BossArenas; i++ {
		required = append(required, catalog.TypeBossArena)
	}
	for i := 0; i < req.MiniDungeons; i++ {
		required = append(required, catalog.TypeMiniDungeon)
	}

	var types []catalog.ContentType
	padding := 0
	if len(required) > total {
		rng.Shuffle(len(required), func(i, j int) {
			required[i], required[j] = required[j], required[i]
		})
		types = required[:total]
	} else {
		padding = total - len(required)
		types = required
		for i := 0; i < padding; i++ {
			types = append(types, catalog.TypeMiniDungeon)
		}
	}

	// Upgrades draw from the padding slots only, so the required counts
	// stay intact.
	if majorBossRatio > 0 && padding > 0 {
		for i := len(types) - padding; i < len(types); i++ {
			if rng.Float64() < majorBossRatio {
				types[i] = catalog.TypeMajorBoss
			}
		}
	}

	rng.Shuffle(len(types), func(i, j int) {
		types[i], types[j] = types[j], types[i]
	})

	demoteFinalMajorBoss(types)
	return types
}

// demoteFinalMajorBoss swaps a major-boss slot off the last layer. Every
// plan contains at least one non-major slot because upgrades never touch
// required entries and never cover all padding deterministically; if the
// whole plan somehow is major-boss, the last slot is demoted to a
// mini-dungeon instead.
func demoteFinalMajorBoss(types []catalog.ContentType) {
	last := len(types) - 1
	if last < 0 || types[last] != catalog.TypeMajorBoss {
		return
	}
	for i := last - 1; i >= 0; i-- {
		if types[i] != catalog.TypeMajorBoss {
			types[i], types[last] = types[last], types[i]
			return
		}
	}
	types[last] = catalog.TypeMiniDungeon
}

// pinFirst forces layer 0 to the given type, preferring a swap with an
// existing occurrence so quota counts are preserved.
func pinFirst(types []catalog.ContentType, t catalog.ContentType) {
	if len(types) == 0 || types[0] == t {
		return
	}
	for i := 1; i < len(types); i++ {
		if types[i] == t {
			types[0], types[i] = types[i], types[0]
			return
		}
	}
	types[0] = t
}
