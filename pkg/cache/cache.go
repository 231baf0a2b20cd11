// Package cache stores rendered canvas artifacts.
//
// Rendering a canvas through Graphviz is the slowest operation cardtree
// performs, while the output depends only on the canvas contents and the
// render options. Artifacts are therefore keyed by a hash of both and kept in
// a [Cache]: a [FileCache] under the user cache directory for the CLI, a
// [RedisCache] when the HTTP server runs against a shared Redis, or a
// [NullCache] when caching is disabled.
//
// Wrap any backend with [Instrument] to report hits and misses through the
// observability cache hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss returns nil, false, nil.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// RenderKey returns the key of a rendered artifact of the canvas whose
	// document hashes to docHash.
	RenderKey(docHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render options that change the artifact bytes.
type RenderKeyOpts struct {
	Format        string `json:"format"`
	ShowHidden    bool   `json:"show_hidden,omitempty"`
	IncludeFields bool   `json:"include_fields,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return hashKey("render", docHash, opts)
}

// ScopedKeyer prefixes every key so several canvases can share one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with a prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(docHash, opts)
}
