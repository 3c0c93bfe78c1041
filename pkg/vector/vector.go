// Package vector holds the rectangle-list image produced from a block grid.
//
// A vector [Image] is measured in grid units: one unit rectangle per block,
// positioned by its grid cell and painted with the block's dominant color.
// Images are built from a [grid.Grid] with [FromGrid] and read back from an
// SVG document with [ParseSVG]; rendering lives in pkg/render/sink.
package vector

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/pixelforge/pkg/grid"
)

// Image is a rectangle-list image on a Width×Height unit canvas.
type Image struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Rects  []Rect `json:"rects"`
}

// Rect is one filled rectangle in canvas units.
type Rect struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	W       int     `json:"width"`
	H       int     `json:"height"`
	Fill    string  `json:"fill"`    // "#RRGGBB"
	Opacity float64 `json:"opacity"` // 0..1, four decimals
}

// FromGrid converts g into a vector image with one unit rectangle per block.
//
// Each rectangle sits at the block's grid cell relative to (g.LeftRef,
// g.TopRef) and carries the RGB of the block's dominant color, its alpha
// becoming the opacity. Blocks without colors produce no rectangle.
func FromGrid(g *grid.Grid) *Image {
	v := &Image{Width: g.Width, Height: g.Height}
	for _, row := range g.Rows {
		for _, b := range row.Blocks {
			d, ok := b.Dominant()
			if !ok {
				continue
			}
			cell := g.Cell(b.Origin)
			v.Rects = append(v.Rects, Rect{
				X:       cell.X,
				Y:       cell.Y,
				W:       1,
				H:       1,
				Fill:    d.RGB(),
				Opacity: Opacity(d.Alpha()),
			})
		}
	}
	return v
}

// Opacity converts an alpha channel value to an opacity rounded to four
// decimal places.
func Opacity(a uint8) float64 {
	return math.Round(float64(a)/255*10000) / 10000
}

// Alpha converts an opacity back to an alpha channel value.
func Alpha(opacity float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
}

// Color returns the rectangle's fill as an opaque RGBA color.
// A fill that is not a "#RRGGBB" hex string is black.
func (r Rect) Color() color.RGBA {
	c, ok := ParseFill(r.Fill)
	if !ok {
		return color.RGBA{A: 0xff}
	}
	return c
}

// NRGBA returns the fill with the rectangle's opacity as alpha.
func (r Rect) NRGBA() color.NRGBA {
	c := r.Color()
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: Alpha(r.Opacity)}
}

// ParseFill parses a "#RRGGBB" fill. It reports false for any other form.
func ParseFill(fill string) (color.RGBA, bool) {
	if len(fill) != 7 || fill[0] != '#' {
		return color.RGBA{}, false
	}
	c, err := colorful.Hex(fill)
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}
