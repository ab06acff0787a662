package pipeline

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/radialtree/pkg/cache"
	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/httputil"
	"github.com/matzehuels/radialtree/pkg/observability"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// LoadWithCacheInfo returns the tree named by opts, its content hash and
// whether it came from the cache.
//
// Sources are local paths or http(s) URLs. JSON sources are decoded directly. CSV sources are converted once and
// the converted tree is cached under the hash of the CSV bytes.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*tree.Node, string, bool, error) {
	r.applyLogger(&opts)
	source := opts.Source
	if opts.Tree != nil {
		source = "inline"
	}
	observability.Pipeline().OnLoadStart(ctx, source)
	start := time.Now()

	root, hash, hit, err := r.load(ctx, opts)

	nodes := 0
	if root != nil {
		nodes = root.Count()
	}
	observability.Pipeline().OnLoadComplete(ctx, source, nodes, time.Since(start), err)
	return root, hash, hit, err
}

// Load is LoadWithCacheInfo without the cache flag.
func (r *Runner) Load(ctx context.Context, opts Options) (*tree.Node, string, error) {
	root, hash, _, err := r.LoadWithCacheInfo(ctx, opts)
	return root, hash, err
}

func (r *Runner) load(ctx context.Context, opts Options) (*tree.Node, string, bool, error) {
	if opts.Tree != nil {
		data, err := tree.Marshal(opts.Tree)
		if err != nil {
			return nil, "", false, err
		}
		return opts.Tree, cache.Hash(data), false, nil
	}
	if opts.Source == "" {
		return nil, "", false, errors.New(errors.ErrCodeInvalidInput, "source or tree is required")
	}

	raw, err := readSource(ctx, opts.Source)
	if err != nil {
		return nil, "", false, err
	}
	hash := cache.Hash(raw)

	if !isCSV(opts.Source) {
		root, err := tree.Unmarshal(raw)
		return root, hash, false, err
	}

	csvOpts := tree.DefaultCSVOptions()
	if opts.CSV != nil {
		csvOpts = *opts.CSV
	}
	optsHash, err := cache.HashJSON(csvOpts)
	if err != nil {
		return nil, "", false, err
	}
	key := r.Keyer.TreeKey(filepath.Base(opts.Source), hash+optsHash)
	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, "tree", key); hit {
			if root, err := tree.Unmarshal(data); err == nil {
				return root, hash, true, nil
			}
		}
	}

	converted, err := tree.ReadCSV(bytes.NewReader(raw), csvOpts)
	if err != nil {
		return nil, "", false, err
	}
	opts.Logger.Debug("converted csv", "source", opts.Source, "nodes", converted.Count())

	// Decode the stored form so cached and fresh loads carry the same
	// attribute types.
	data, err := tree.Marshal(converted)
	if err != nil {
		return nil, "", false, err
	}
	root, err := tree.Unmarshal(data)
	if err != nil {
		return nil, "", false, err
	}
	r.cacheSet(ctx, "tree", key, data, cache.TTLTree)
	return root, hash, false, nil
}

// readSource reads a local file or downloads an http(s) URL.
func readSource(ctx context.Context, source string) ([]byte, error) {
	if httputil.IsURL(source) {
		return httputil.Fetch(ctx, nil, source)
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "tree file %s does not exist", source)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", source)
	}
	return raw, nil
}

func isCSV(source string) bool {
	if i := strings.IndexAny(source, "?#"); i >= 0 && httputil.IsURL(source) {
		source = source[:i]
	}
	return strings.EqualFold(path.Ext(source), ".csv")
}
