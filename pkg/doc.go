// Package pkg provides the core libraries for pixelforge, which turns
// AI-generated "pseudo pixel art" into exact block grids.
//
// # Overview
//
// Pseudo pixel art looks blocky but is not: block edges drift, colors bleed
// across them and the block size is unknown. Pixelforge finds the visible
// content, infers the block size, re-quantizes every block to its dominant
// color and writes the result as a rectangle-list SVG that renders back to
// an editable one-pixel-per-block PNG. The pkg directory is organized into
// four areas:
//
//  1. Core: [raster], [grid], [estimate], [vector], [render/sink]
//  2. Orchestration: [pipeline]
//  3. Infrastructure: [cache], [blob], [session], [config], [observability]
//  4. Integrations: [integrations] (generation and background removal)
//
// # Architecture
//
// The data flow of a conversion:
//
//	image file (png, jpeg, gif, bmp, tiff, webp)
//	         ↓
//	    [raster] package (decode + normalize to NRGBA)
//	         ↓
//	    [estimate] package (block size, optional)
//	         ↓
//	    [grid] package (bounds + row block scan)
//	         ↓
//	    [vector] package (one rect per block)
//	         ↓
//	    [render/sink] package (SVG, JSON, full-size PNG, editable PNG)
//
// # Quick Start
//
//	img, _ := raster.Load("fox.png")
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	result, _ := runner.Convert(ctx, img, pipeline.Options{
//	    AutoDetect: true,
//	    Formats:    []string{pipeline.FormatSVG, pipeline.FormatEditable},
//	})
//	os.WriteFile("fox.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Errors
//
// All packages return errors from [errors], which carry a stable code.
// [errors.ExitCode] maps a code to the process exit status used by the CLI.
package pkg
