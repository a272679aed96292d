package cache

// ScopedKeyer namespaces the keys of another Keyer, so that several
// deployments can share one Redis without reading each other's layouts.
//
//	keyer := NewScopedKeyer(nil, "nodemap:staging:")
type ScopedKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer prefixes every key of inner. A nil inner means the
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return ScopedKeyer{Keyer: inner, prefix: prefix}
}

func (k ScopedKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.Keyer.LayoutKey(outlineHash, opts)
}

func (k ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.Keyer.ArtifactKey(layoutHash, opts)
}
