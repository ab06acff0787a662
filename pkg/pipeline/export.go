package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/radialtree/pkg/cache"
	"github.com/matzehuels/radialtree/pkg/export"
	"github.com/matzehuels/radialtree/pkg/observability"
	"github.com/matzehuels/radialtree/pkg/radial"
)

// ExportWithCacheInfo serializes res in every requested format. The flag
// reports whether all formats came from the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, res *radial.Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := json.Marshal(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	optsData, err := json.Marshal(opts.DOT)
	if err != nil {
		return nil, false, fmt.Errorf("serialize export options for cache key: %w", err)
	}
	layoutHash := cache.Hash(append(layoutData, optsData...))

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit := r.cacheGet(ctx, "export", r.Keyer.ExportKey(layoutHash, format))
			if !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	observability.Pipeline().OnExportStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Export(ctx, res, opts)
	observability.Pipeline().OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.cacheSet(ctx, "export", r.Keyer.ExportKey(layoutHash, format), data, cache.TTLExport)
	}
	return rendered, false, nil
}

// Export serializes res without caching.
func Export(ctx context.Context, res *radial.Result, opts Options) (map[string][]byte, error) {
	opts.SetExportDefaults()
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = export.JSON(res)
		case FormatDOT:
			data, err = export.DOT(ctx, res, opts.DOT)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}
