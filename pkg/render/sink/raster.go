package sink

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/matzehuels/pixelforge/pkg/raster"
	"github.com/matzehuels/pixelforge/pkg/vector"
)

// RenderRaster materializes v at width×height pixels with hard block edges.
//
// Rectangles are painted onto a transparent canvas of v's grid size using
// their fill with opacity as alpha, then scaled with nearest-neighbour
// sampling. A non-positive width or height falls back to the grid size.
func RenderRaster(v *vector.Image, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		width, height = v.Width, v.Height
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if v.Width <= 0 || v.Height <= 0 {
		return dst
	}

	cells := image.NewNRGBA(image.Rect(0, 0, v.Width, v.Height))
	for _, r := range v.Rects {
		paint(cells, r, r.NRGBA())
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), cells, cells.Bounds(), draw.Src, nil)
	return dst
}

// RenderEditable materializes v at exactly one pixel per grid unit.
//
// The canvas starts white; each rectangle is painted with its RGB, clipped
// to the canvas, and its opacity is ignored. Fills that are not "#RRGGBB"
// paint black.
func RenderEditable(v *vector.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(v.Width, 0), max(v.Height, 0)))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	for _, r := range v.Rects {
		paint(dst, r, r.Color())
	}
	return dst
}

// RenderRasterPNG encodes [RenderRaster] output as PNG.
func RenderRasterPNG(v *vector.Image, width, height int) ([]byte, error) {
	return raster.EncodePNG(RenderRaster(v, width, height))
}

// RenderEditablePNG encodes [RenderEditable] output as PNG.
func RenderEditablePNG(v *vector.Image) ([]byte, error) {
	return raster.EncodePNG(RenderEditable(v))
}

func paint(dst draw.Image, r vector.Rect, c color.Color) {
	area := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	draw.Draw(dst, area, image.NewUniform(c), image.Point{}, draw.Src)
}
