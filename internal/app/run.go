package app

import (
	"context"
	"fmt"

	"github.com/rbignon/speedfog-sub000/internal/ctxlog"
	"github.com/rbignon/speedfog-sub000/internal/driver"
	"github.com/rbignon/speedfog-sub000/internal/hclconf"
)

// Run loads the catalog and configuration, drives generation under the
// configured seed policy, and writes the accepted run graph as JSON.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	cat, err := hclconf.LoadCatalog(ctx, a.config.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	a.logger.Debug("catalog ready", "clusters", cat.Len())

	genCfg, err := hclconf.LoadConfig(ctx, a.config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if hub := genCfg.Structure.HubCluster; hub != "" {
		if err := cat.MergeHub(hub); err != nil {
			return fmt.Errorf("failed to merge hub cluster: %w", err)
		}
		a.logger.Debug("hub cluster merged into start", "hub", hub)
	}

	d, err := driver.New(cat, genCfg)
	if err != nil {
		return err
	}

	graph, result, err := d.Run(ctx, a.config.Seed)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for _, w := range result.Warnings {
		a.logger.Warn(w)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			a.logger.Error(e)
		}
		return fmt.Errorf("seed %d produced an invalid run graph (%d errors)", graph.Seed, len(result.Errors))
	}

	a.logger.Info("run graph generated",
		"seed", graph.Seed, "nodes", len(graph.Nodes), "edges", len(graph.Edges), "paths", len(graph.Paths()))

	return a.writeRun(cat, graph)
}
