// Package driver orchestrates generation attempts under a seed policy.
// A fixed seed runs exactly once and its failure surfaces verbatim; the
// sentinel seed rerolls fresh random seeds until a graph passes
// validation or the attempt cap runs out.
package driver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
	"github.com/rbignon/speedfog-sub000/internal/ctxlog"
	"github.com/rbignon/speedfog-sub000/internal/planner"
	"github.com/rbignon/speedfog-sub000/internal/rungraph"
	"github.com/rbignon/speedfog-sub000/internal/topology"
	"github.com/rbignon/speedfog-sub000/internal/validator"
)

// SentinelSeed requests random-seed mode: a seed of 0 means a random
// seed will be generated for each attempt.
const SentinelSeed = 0

// ErrAttemptsExhausted indicates that no rerolled seed produced a valid
// graph within the attempt cap. It is distinct from a single fixed
// seed's failure, which propagates unchanged.
var ErrAttemptsExhausted = errors.New("driver: attempt cap exhausted")

// Driver binds a catalog and a configuration for one or many attempts.
type Driver struct {
	cat *catalog.Catalog
	cfg *config.Config
}

// New validates the configuration against itself and the catalog before
// returning a driver; contradictions fail here, never mid-generation.
func New(cat *catalog.Catalog, cfg *config.Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateCatalog(cat); err != nil {
		return nil, err
	}
	return &Driver{cat: cat, cfg: cfg}, nil
}

// Run executes the seed policy and returns the accepted graph with its
// validation result. With a fixed seed the graph is returned even when
// validation found blocking errors, so the caller can inspect it.
func (d *Driver) Run(ctx context.Context, seed int64) (*rungraph.Graph, *validator.Result, error) {
	logger := ctxlog.FromContext(ctx)

	if seed != SentinelSeed {
		return d.attempt(ctx, seed)
	}

	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for i := 0; i < d.cfg.Structure.MaxAttempts; i++ {
		s := entropy.Int63()
		if s == SentinelSeed {
			continue
		}
		attemptID := uuid.NewString()
		logger.Debug("generation attempt", "attempt_id", attemptID, "attempt", i+1, "seed", s)

		g, res, err := d.attempt(ctx, s)
		if err != nil {
			lastErr = err
			logger.Debug("attempt failed", "attempt_id", attemptID, "error", err)
			continue
		}
		if !res.Valid {
			lastErr = fmt.Errorf("validation: %s", strings.Join(res.Errors, "; "))
			logger.Debug("attempt rejected by validator", "attempt_id", attemptID, "errors", len(res.Errors))
			continue
		}
		logger.Info("run graph accepted", "attempt_id", attemptID, "seed", s, "nodes", len(g.Nodes))
		return g, res, nil
	}

	return nil, nil, fmt.Errorf("%w: %d attempts, last error: %v",
		ErrAttemptsExhausted, d.cfg.Structure.MaxAttempts, lastErr)
}

// attempt runs one fully independent generation: fresh rng, fresh graph,
// fresh zone bookkeeping. Nothing survives into the next attempt.
func (d *Driver) attempt(ctx context.Context, seed int64) (*rungraph.Graph, *validator.Result, error) {
	rng := rand.New(rand.NewSource(seed))
	s := &d.cfg.Structure

	total := s.MinLayers
	if s.MaxLayers > s.MinLayers {
		total += rng.Intn(s.MaxLayers - s.MinLayers + 1)
	}

	layers := planner.Plan(
		planner.Quotas{
			LegacyDungeons: d.cfg.Requirements.LegacyDungeons,
			BossArenas:     d.cfg.Requirements.BossArenas,
			MiniDungeons:   d.cfg.Requirements.MiniDungeons,
		},
		planner.Options{
			TotalLayers:    total,
			FinalTier:      s.FinalTier,
			MajorBossRatio: s.MajorBossRatio,
			FirstLayerType: s.FirstLayerType,
		},
		rng,
	)

	g, err := topology.New(d.cat, d.cfg, rng).Generate(ctx, seed, layers)
	if err != nil {
		return nil, nil, err
	}
	return g, validator.Check(g, d.cfg), nil
}
