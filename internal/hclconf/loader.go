package hclconf

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/rbignon/speedfog-sub000/internal/catalog"
	"github.com/rbignon/speedfog-sub000/internal/config"
	"github.com/rbignon/speedfog-sub000/internal/ctxlog"
	"github.com/rbignon/speedfog-sub000/internal/fsutil"
)

// ErrCatalogNotFound indicates the catalog document is absent. Loading
// fails fast on it so a misconfigured path is distinguishable from a
// malformed document.
var ErrCatalogNotFound = errors.New("hclconf: catalog document not found")

// LoadCatalog reads cluster and zone definitions from a single .hcl
// file or from every .hcl file under a directory.
func LoadCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("hclconf: stat catalog path %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("hclconf: scan catalog directory %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no .hcl files under %s", ErrCatalogNotFound, path)
		}
	}

	parser := hclparse.NewParser()
	var clusters []*catalog.Cluster
	zones := make(map[string]catalog.ZoneInfo)
	for _, file := range files {
		doc, err := parseCatalogFile(file, parser)
		if err != nil {
			return nil, err
		}
		for _, block := range doc.Clusters {
			cl, err := translateCluster(block)
			if err != nil {
				return nil, fmt.Errorf("hclconf: %s: %w", file, err)
			}
			clusters = append(clusters, cl)
		}
		for _, z := range doc.Zones {
			zones[z.ID] = catalog.ZoneInfo{Map: z.Map, Name: z.Name}
		}
	}
	logger.Debug("catalog loaded", "files", len(files), "clusters", len(clusters), "zones", len(zones))

	return catalog.New(clusters, zones)
}

func parseCatalogFile(path string, parser *hclparse.Parser) (*catalogDocument, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclconf: parse %s: %w", path, diags)
	}
	var doc catalogDocument
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("hclconf: decode %s: %w", path, diags)
	}
	return &doc, nil
}

// LoadConfig reads the generator configuration from a single .hcl file.
func LoadConfig(ctx context.Context, path string) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclconf: parse %s: %w", path, diags)
	}
	var doc configDocument
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("hclconf: decode %s: %w", path, diags)
	}

	cfg, err := translateConfig(&doc)
	if err != nil {
		return nil, fmt.Errorf("hclconf: %s: %w", path, err)
	}
	logger.Debug("configuration loaded", "path", path)
	return cfg, nil
}
