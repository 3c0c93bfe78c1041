// Package pipeline provides the conversion pipeline for pixelforge.
//
// This package implements the complete estimate → assemble → render flow
// that is shared by the CLI and the HTTP server. By centralizing this logic,
// both entry points resolve block sizes, cache results and name artifacts
// the same way.
//
// # Architecture
//
// A conversion has three stages:
//
//  1. Resolve: use the explicit block size, or run the estimator, or fall
//     back to [DefaultBlockSize]
//  2. Assemble: scan the image into a block grid and build its vector image
//  3. Render: produce the requested formats (svg, json, png, editable)
//
// Estimates and artifacts are cached by image content hash, so converting
// the same pixels twice reuses the earlier work.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	result, err := runner.Convert(ctx, img, pipeline.Options{
//	    AutoDetect: true,
//	    Formats:    []string{pipeline.FormatSVG, pipeline.FormatEditable},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Vector documents are turned back into rasters with [Materialize].
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/grid"
	"github.com/matzehuels/pixelforge/pkg/vector"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultBlockSize is used when no block size is given and detection is
	// off or unavailable.
	DefaultBlockSize = 16

	// DefaultThreshold is the minimum alpha of a visible pixel.
	DefaultThreshold = 128
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatJSON     = "json"
	FormatPNG      = "png"      // full-size raster, hard edges
	FormatEditable = "editable" // one pixel per block
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatJSON:     true,
	FormatPNG:      true,
	FormatEditable: true,
}

// Block size sources reported in [Result.BlockSource].
const (
	SourceExplicit  = "explicit"
	SourceEstimated = "estimated"
	SourceDefault   = "default"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Block size resolution
	BlockSize  int   `json:"block_size,omitempty"`  // explicit size; wins over AutoDetect
	AutoDetect bool  `json:"auto_detect,omitempty"` // run the estimator when BlockSize is 0
	Candidates []int `json:"candidates,omitempty"`

	// Scanning
	Threshold *int `json:"threshold,omitempty"` // nil means DefaultThreshold
	Workers   int  `json:"workers,omitempty"`

	// Rendering
	Formats []string `json:"formats,omitempty"`
	Width   int      `json:"width,omitempty"`  // png width; 0 means source width
	Height  int      `json:"height,omitempty"` // png height; 0 means source height
	Scale   int      `json:"scale,omitempty"`  // svg display pixels per block
	Source  string   `json:"source,omitempty"` // source name recorded in json output

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a conversion.
type Result struct {
	// BlockSize is the block size the grid was assembled at.
	BlockSize int

	// BlockSource tells how BlockSize was chosen.
	BlockSource string

	// Estimate is set when the estimator ran.
	Estimate *estimate.Estimate

	// ImageHash is the content hash of the source pixels.
	ImageHash string

	// Grid is the reconstructed block grid.
	Grid *grid.Grid

	// Vector is the rectangle-list image built from Grid.
	Vector *vector.Image

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// EstimateResult is the outcome of [Runner.Estimate].
type EstimateResult struct {
	Estimate  *estimate.Estimate
	ImageHash string

	// Vector and SVG are the diagnostic reconstruction at the selected size,
	// nil when no grid could be assembled there.
	Vector *vector.Image
	SVG    []byte

	CacheHit bool
	Duration time.Duration
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SourceWidth  int
	SourceHeight int
	Rows         int
	Blocks       int
	EstimateTime time.Duration
	AssembleTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	EstimateHit bool // Whether the estimate came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	return []string{FormatSVG, FormatJSON, FormatPNG, FormatEditable}
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.BlockSize != 0 {
		if err := errors.ValidateBlockSize(o.BlockSize); err != nil {
			return err
		}
	}
	if len(o.Candidates) == 0 {
		o.Candidates = slices.Clone(estimate.DefaultCandidates)
	}
	if err := errors.ValidateCandidates(o.Candidates); err != nil {
		return err
	}
	if o.Threshold == nil {
		t := DefaultThreshold
		o.Threshold = &t
	}
	if err := errors.ValidateThreshold(*o.Threshold); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if err := errors.ValidateRasterSize(o.Width, o.Height); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative, got %d", o.Scale)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// AlphaThreshold returns the threshold as the core expects it.
// Call after [Options.ValidateAndSetDefaults].
func (o *Options) AlphaThreshold() uint8 {
	if o.Threshold == nil {
		return DefaultThreshold
	}
	return uint8(*o.Threshold)
}

// GridOptions returns the assembler options for blockSize.
func (o *Options) GridOptions(blockSize int) grid.Options {
	return grid.Options{BlockSize: blockSize, Threshold: o.AlphaThreshold(), Workers: o.Workers}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string, blockSize int) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:    format,
		BlockSize: blockSize,
		Threshold: o.AlphaThreshold(),
	}
	switch format {
	case FormatPNG:
		k.Width, k.Height = o.Width, o.Height
	case FormatSVG:
		k.Scale = o.Scale
	case FormatJSON:
		k.Source = o.Source
	}
	return k
}

// IntPtr returns a pointer to v, for [Options.Threshold].
func IntPtr(v int) *int { return &v }
