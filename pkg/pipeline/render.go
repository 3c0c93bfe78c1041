package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/observability"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
	"github.com/matzehuels/pixelforge/pkg/vector"
)

// render generates artifacts with caching and returns cache hit info.
// The hit flag is true only when every format came from the cache.
func (r *Runner) render(ctx context.Context, result *Result, opts Options) (map[string][]byte, bool, error) {
	hooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.ImageHash, opts.ArtifactKeyOpts(format, result.BlockSize))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := RenderFormat(result.Vector, format, opts, result.Stats.SourceWidth, result.Stats.SourceHeight, result.BlockSize)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if r.Cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, allCached, nil
}

// RenderFormat renders v in one format. srcW and srcH are the default png
// size; blockSize is recorded in json output.
func RenderFormat(v *vector.Image, format string, opts Options, srcW, srcH, blockSize int) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(v, sink.WithScale(opts.Scale)), nil
	case FormatJSON:
		return sink.RenderJSON(v, sink.WithJSONBlockSize(blockSize), sink.WithJSONSource(opts.Source))
	case FormatPNG:
		w, h := opts.Width, opts.Height
		if w == 0 {
			w = srcW
		}
		if h == 0 {
			h = srcH
		}
		if err := errors.ValidateRasterSize(w, h); err != nil {
			return nil, err
		}
		return sink.RenderRasterPNG(v, w, h)
	case FormatEditable:
		return sink.RenderEditablePNG(v)
	default:
		return nil, ValidateFormat(format)
	}
}

// OutputName derives the artifact name for format from an input name:
// "fox.png" at 16px becomes "fox_perfect_16px.svg", "fox_perfect_16px.json",
// "fox_perfect_16px_rasterized.png" or "fox_perfect_16px_editable.png".
func OutputName(input, format string, blockSize int) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	return ArtifactName(fmt.Sprintf("%s_perfect_%dpx", stem, blockSize), format)
}

// ArtifactName appends the suffix and extension of format to stem.
func ArtifactName(stem, format string) string {
	switch format {
	case FormatPNG:
		return stem + "_rasterized.png"
	case FormatEditable:
		return stem + "_editable.png"
	default:
		return stem + "." + format
	}
}

// =============================================================================
// Materialize - vector document back to rasters
// =============================================================================

// MaterializeOptions configures [Materialize].
type MaterializeOptions struct {
	// Width and Height size the full raster; 0 uses the canvas size.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Raster and Editable select the outputs; both false renders both.
	Raster   bool `json:"raster,omitempty"`
	Editable bool `json:"editable,omitempty"`
}

// MaterializeResult holds the PNG outputs of [Materialize].
type MaterializeResult struct {
	Vector   *vector.Image
	Raster   []byte // full-size, hard edges, opacity as alpha
	Editable []byte // one pixel per canvas unit, opaque on white
	Skipped  int    // malformed rects ignored while parsing
}

// Materialize reads a vector document and renders it to PNG.
func Materialize(r io.Reader, opts MaterializeOptions) (*MaterializeResult, error) {
	if err := errors.ValidateRasterSize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	if !opts.Raster && !opts.Editable {
		opts.Raster, opts.Editable = true, true
	}

	v, skipped, err := vector.ParseSVG(r)
	if err != nil {
		return nil, err
	}
	if err := errors.ValidateRasterSize(v.Width, v.Height); err != nil {
		return nil, err
	}
	res := &MaterializeResult{Vector: v, Skipped: skipped}

	if opts.Raster {
		if res.Raster, err = sink.RenderRasterPNG(v, opts.Width, opts.Height); err != nil {
			return nil, err
		}
	}
	if opts.Editable {
		if res.Editable, err = sink.RenderEditablePNG(v); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// MaterializeBytes is [Materialize] over an in-memory document.
func MaterializeBytes(svg []byte, opts MaterializeOptions) (*MaterializeResult, error) {
	return Materialize(bytes.NewReader(svg), opts)
}
