// Package sink provides output format renderers for vector images.
//
// # Overview
//
// A "sink" transforms a [vector.Image] into a final output format. This
// package provides renderers for:
//
//   - SVG: the rectangle-list document, one unit <rect> per block
//   - JSON: the rectangle list for external tools
//   - Raster: a full-size hard-edged image (materializer contract A)
//   - Editable: one pixel per block on white (materializer contract B)
//
// # SVG Output
//
// [RenderSVG] writes a document whose viewBox is the grid canvas, with
// shape-rendering set to crispEdges so viewers never blur block edges:
//
//	svg := sink.RenderSVG(v)
//	svg := sink.RenderSVG(v, sink.WithScale(16)) // display at 16px per block
//
// The output reads back through [vector.ParseSVG].
//
// # Raster Output
//
// [RenderRaster] paints every rectangle with its opacity as alpha on a
// transparent canvas and scales it with nearest-neighbour sampling to the
// requested size, usually the source raster's. [RenderEditable] produces the
// exact W×H image an editor can paint on: RGB only, opacity dropped, white
// where no rectangle lies.
//
//	full := sink.RenderRaster(v, src.Bounds().Dx(), src.Bounds().Dy())
//	edit := sink.RenderEditable(v)
//	data, err := sink.RenderEditablePNG(v)
//
// [vector.Image]: github.com/matzehuels/pixelforge/pkg/vector.Image
// [vector.ParseSVG]: github.com/matzehuels/pixelforge/pkg/vector.ParseSVG
package sink
