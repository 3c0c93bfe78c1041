package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/grid"
	"github.com/matzehuels/pixelforge/pkg/observability"
	"github.com/matzehuels/pixelforge/pkg/render/sink"
	"github.com/matzehuels/pixelforge/pkg/vector"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, estimator and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Estimator estimate.Estimator
	Logger    *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If estimator is nil, the gradient estimator is used.
// If logger is nil, log output is discarded.
func NewRunner(c cache.Cache, keyer cache.Keyer, est estimate.Estimator, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if est == nil {
		est = estimate.Gradient{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Estimator: est,
		Logger:    logger,
	}
}

// Estimate scores opts.Candidates on img and reconstructs the image at the
// winning size for inspection. When the reconstruction fails the scores are
// still returned, with a nil Vector and SVG.
func (r *Runner) Estimate(ctx context.Context, img *image.NRGBA, opts Options) (*EstimateResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hash := cache.HashImage(img)

	start := time.Now()
	est, hit, err := r.estimate(ctx, img, hash, opts)
	if err != nil {
		return nil, err
	}
	res := &EstimateResult{Estimate: est, ImageHash: hash, CacheHit: hit, Duration: time.Since(start)}

	g, err := grid.Assemble(ctx, img, opts.GridOptions(est.BlockSize))
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		r.Logger.Warn("no reconstruction at estimated block size",
			"block_size", est.BlockSize,
			"reason", errors.UserMessage(err))
	default:
		res.Vector = vector.FromGrid(g)
		res.SVG = sink.RenderSVG(res.Vector, sink.WithScale(opts.Scale))
	}

	best := est.Best()
	r.Logger.Info("estimated block size",
		"block_size", est.BlockSize,
		"score", fmt.Sprintf("%.4f", best.Combined),
		"cached", hit,
		"duration", res.Duration)
	return res, nil
}

// estimate runs the estimator with caching.
func (r *Runner) estimate(ctx context.Context, img *image.NRGBA, hash string, opts Options) (*estimate.Estimate, bool, error) {
	key := r.Keyer.EstimateKey(hash, cache.EstimateKeyOpts{
		Variant:    fmt.Sprintf("%T", r.Estimator),
		Candidates: opts.Candidates,
	})
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var est estimate.Estimate
			if err := json.Unmarshal(data, &est); err == nil && len(est.Scores) > 0 {
				hooks.OnCacheHit(ctx, "estimate")
				return &est, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, "estimate")
	}

	ph := observability.Pipeline()
	ph.OnEstimateStart(ctx, opts.Candidates)
	start := time.Now()
	est, err := r.Estimator.Estimate(img, opts.Candidates)
	if err != nil {
		ph.OnEstimateComplete(ctx, 0, time.Since(start), err)
		return nil, false, err
	}
	ph.OnEstimateComplete(ctx, est.BlockSize, time.Since(start), nil)

	for _, s := range est.Scores {
		r.Logger.Debug("candidate",
			"block_size", s.BlockSize,
			"uniformity", fmt.Sprintf("%.4f", s.Uniformity),
			"boundary_ratio", fmt.Sprintf("%.4f", s.BoundaryRatio),
			"combined", fmt.Sprintf("%.4f", s.Combined))
	}

	if data, err := json.Marshal(est); err == nil {
		if r.Cache.Set(ctx, key, data, cache.TTLEstimate) == nil {
			hooks.OnCacheSet(ctx, "estimate", len(data))
		}
	}
	return est, false, nil
}

// Convert runs the complete resolve → assemble → render pipeline.
func (r *Runner) Convert(ctx context.Context, img *image.NRGBA, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		ImageHash: cache.HashImage(img),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.SourceWidth, result.Stats.SourceHeight = img.Rect.Dx(), img.Rect.Dy()

	// Stage 1: Resolve block size
	estStart := time.Now()
	if err := r.resolveBlockSize(ctx, img, opts, result); err != nil {
		return nil, err
	}
	result.Stats.EstimateTime = time.Since(estStart)

	// Stage 2: Assemble
	ph := observability.Pipeline()
	ph.OnAssembleStart(ctx, result.BlockSize)
	asmStart := time.Now()
	g, err := grid.Assemble(ctx, img, opts.GridOptions(result.BlockSize))
	result.Stats.AssembleTime = time.Since(asmStart)
	if err != nil {
		ph.OnAssembleComplete(ctx, result.BlockSize, 0, 0, result.Stats.AssembleTime, err)
		return nil, err
	}
	result.Grid = g
	result.Vector = vector.FromGrid(g)
	result.Stats.Rows = len(g.Rows)
	result.Stats.Blocks = g.BlockCount()
	ph.OnAssembleComplete(ctx, result.BlockSize, result.Stats.Rows, result.Stats.Blocks, result.Stats.AssembleTime, nil)

	r.Logger.Info("assembled grid",
		"block_size", result.BlockSize,
		"source", result.BlockSource,
		"rows", result.Stats.Rows,
		"blocks", result.Stats.Blocks,
		"canvas", fmt.Sprintf("%dx%d", g.Width, g.Height),
		"duration", result.Stats.AssembleTime)

	// Stage 3: Render
	renderStart := time.Now()
	ph.OnRenderStart(ctx, opts.Formats)
	artifacts, hit, err := r.render(ctx, result, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	ph.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// resolveBlockSize fills BlockSize, BlockSource and Estimate on result.
// An estimator that reports UNSUPPORTED falls back to DefaultBlockSize.
func (r *Runner) resolveBlockSize(ctx context.Context, img *image.NRGBA, opts Options, result *Result) error {
	switch {
	case opts.BlockSize > 0:
		result.BlockSize, result.BlockSource = opts.BlockSize, SourceExplicit
		return nil
	case !opts.AutoDetect:
		result.BlockSize, result.BlockSource = DefaultBlockSize, SourceDefault
		return nil
	}

	est, hit, err := r.estimate(ctx, img, result.ImageHash, opts)
	if errors.Is(err, errors.ErrCodeUnsupported) {
		r.Logger.Warn("block size detection unavailable, using default",
			"block_size", DefaultBlockSize,
			"reason", errors.UserMessage(err))
		result.BlockSize, result.BlockSource = DefaultBlockSize, SourceDefault
		return nil
	}
	if err != nil {
		return err
	}
	result.BlockSize, result.BlockSource = est.BlockSize, SourceEstimated
	result.Estimate = est
	result.CacheInfo.EstimateHit = hit
	r.Logger.Info("detected block size", "block_size", est.BlockSize, "cached", hit)
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
