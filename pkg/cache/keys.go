package cache

import "slices"

// Keyer derives cache keys. Keys embed a content hash of every input that
// affects the cached value, so stale entries are never returned.
type Keyer interface {
	// TreeKey addresses a parsed tree by its source (a file path or dataset
	// name) and the source's content hash.
	TreeKey(source, contentHash string) string

	// LayoutKey addresses a layout of the tree with hash treeHash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ExportKey addresses one serialized format of a layout.
	ExportKey(layoutHash, format string) string
}

// LayoutKeyOpts holds the layout inputs besides the tree.
type LayoutKeyOpts struct {
	// ConfigHash is the hash of the JSON-encoded layout config.
	ConfigHash string `json:"config"`

	// Expanded is the expansion set. Order does not matter.
	Expanded []string `json:"expanded"`
}

// DefaultKeyer produces keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) TreeKey(source, contentHash string) string {
	return hashKey("tree", source, contentHash)
}

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	expanded := slices.Clone(opts.Expanded)
	slices.Sort(expanded)
	return hashKey("layout", treeHash, opts.ConfigHash, expanded)
}

func (DefaultKeyer) ExportKey(layoutHash, format string) string {
	return hashKey("export", layoutHash, format)
}

var _ Keyer = DefaultKeyer{}
