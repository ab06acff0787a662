package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// datasets or deployments can share one backend without collisions.
//
//	ukb := NewScopedKeyer(NewDefaultKeyer(), "ukb:")
//	key := ukb.LayoutKey(treeHash, opts) // "ukb:layout:..."
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) TreeKey(source, contentHash string) string {
	return k.prefix + k.inner.TreeKey(source, contentHash)
}

func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}

func (k *ScopedKeyer) ExportKey(layoutHash, format string) string {
	return k.prefix + k.inner.ExportKey(layoutHash, format)
}
