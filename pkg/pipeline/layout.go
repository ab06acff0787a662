package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/radialtree/pkg/cache"
	"github.com/matzehuels/radialtree/pkg/observability"
	"github.com/matzehuels/radialtree/pkg/radial"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// LayoutWithCacheInfo lays out root with the given expansion and reports
// whether the result came from the cache. treeHash identifies root's
// content.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, root *tree.Node, treeHash string,
	expanded tree.Expansion, opts Options) (*radial.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	key, err := r.layoutKey(treeHash, expanded, *opts.Config)
	if err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, "layout", key); hit {
			var cached radial.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, true, nil
			}
		}
	}

	observability.Pipeline().OnLayoutStart(ctx, tree.Filter(root, expanded).Count())
	start := time.Now()
	res, err := radial.Compute(root, expanded, *opts.Config)
	stats := observability.LayoutStats{}
	if res != nil {
		stats = observability.LayoutStats{
			Nodes:      len(res.Nodes),
			MaxDepth:   res.MaxDepth(),
			Violations: totalViolations(res),
			OuterRing:  res.Radii.At(res.MaxDepth()),
		}
	}
	observability.Pipeline().OnLayoutComplete(ctx, stats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	logLayout(opts, res)

	if data, err := json.Marshal(res); err == nil {
		r.cacheSet(ctx, "layout", key, data, r.layoutTTL())
	}
	return res, false, nil
}

// Layout is LayoutWithCacheInfo without the cache flag.
func (r *Runner) Layout(ctx context.Context, root *tree.Node, treeHash string,
	expanded tree.Expansion, opts Options) (*radial.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, root, treeHash, expanded, opts)
	return res, err
}

func (r *Runner) layoutKey(treeHash string, expanded tree.Expansion, cfg radial.Config) (string, error) {
	cfgHash, err := cache.HashJSON(cfg)
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	return r.Keyer.LayoutKey(treeHash, cache.LayoutKeyOpts{
		ConfigHash: cfgHash,
		Expanded:   expanded.Paths(),
	}), nil
}

// logLayout reports ring radii and residual overlaps at debug level.
func logLayout(opts Options, res *radial.Result) {
	for d, radius := range res.Radii {
		if d == 0 {
			continue
		}
		opts.Logger.Debug("ring", "depth", d, "radius", fmt.Sprintf("%.1f", radius))
	}
	for _, d := range slices.Sorted(maps.Keys(res.Violations)) {
		opts.Logger.Debug("residual overlaps", "depth", d, "pairs", res.Violations[d])
	}
}

func totalViolations(res *radial.Result) int {
	total := 0
	for _, v := range res.Violations {
		total += v
	}
	return total
}
