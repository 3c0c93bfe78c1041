// Package cache provides the byte cache behind the reconstruction pipeline.
//
// Estimates and rendered artifacts are deterministic functions of the source
// pixels and the run options, so the pipeline stores them under content
// hashed keys and serves repeat runs from the cache. Three backends are
// available:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that all front ends agree on them;
// [NewScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. The second result is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default time-to-live per entry kind.
const (
	TTLEstimate = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLHTTP     = 24 * time.Hour
)

// Keyer derives cache keys for pipeline results.
type Keyer interface {
	// HTTPKey keys a downloaded or fetched response.
	HTTPKey(namespace, key string) string
	// EstimateKey keys a block size estimate of an image.
	EstimateKey(imageHash string, opts EstimateKeyOpts) string
	// ArtifactKey keys one rendered output of an image.
	ArtifactKey(imageHash string, opts ArtifactKeyOpts) string
}

// EstimateKeyOpts are the inputs that change an estimate.
type EstimateKeyOpts struct {
	Variant    string `json:"variant"`
	Candidates []int  `json:"candidates"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	BlockSize int    `json:"block_size"`
	Threshold uint8  `json:"threshold"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Scale     int    `json:"scale,omitempty"`
	Source    string `json:"source,omitempty"`
}

// DefaultKeyer produces unprefixed keys of the form "kind:hash".
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// EstimateKey hashes the image hash with the estimate options.
func (DefaultKeyer) EstimateKey(imageHash string, opts EstimateKeyOpts) string {
	return hashKey("estimate", imageHash, opts)
}

// ArtifactKey hashes the image hash with the artifact options.
func (DefaultKeyer) ArtifactKey(imageHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", imageHash, opts)
}
