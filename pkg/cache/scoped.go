package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis cache.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "pixelforge:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for fetched responses.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// EstimateKey generates a prefixed key for estimates.
func (k *ScopedKeyer) EstimateKey(imageHash string, opts EstimateKeyOpts) string {
	return k.prefix + k.inner.EstimateKey(imageHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) ArtifactKey(imageHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(imageHash, opts)
}
