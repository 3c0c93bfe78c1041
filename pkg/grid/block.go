package grid

import (
	"cmp"
	"image"
	"image/color"
	"slices"
)

// Block is one blockSize×blockSize tile of the source raster.
type Block struct {
	Index   int          `json:"index"`   // tile position within its row, counting empty tiles
	Origin  image.Point  `json:"origin"`  // top-left pixel in image coordinates
	Width   int          `json:"width"`   // scanned width, less than the block size at the right edge
	Height  int          `json:"height"`  // scanned height, less than the block size at the bottom edge
	Visible int          `json:"visible"` // pixels with alpha >= threshold
	Skipped int          `json:"skipped"` // pixels below the threshold
	Colors  []ColorCount `json:"colors"`  // visible colors, most frequent first
}

// ColorCount records one exact RGBA color inside a block.
type ColorCount struct {
	RGBA   string        `json:"rgba"` // "#RRGGBBAA"
	Color  color.NRGBA   `json:"-"`
	Count  int           `json:"count"`
	Coords []image.Point `json:"coords,omitempty"`
}

// RGB returns the color as "#RRGGBB".
func (c ColorCount) RGB() string { return c.RGBA[:7] }

// Alpha returns the color's alpha channel.
func (c ColorCount) Alpha() uint8 { return c.Color.A }

// Dominant returns the most frequent visible color of the block.
// Ties were broken by the smaller color key when the block was built.
func (b Block) Dominant() (ColorCount, bool) {
	if len(b.Colors) == 0 {
		return ColorCount{}, false
	}
	return b.Colors[0], true
}

// Coverage returns the fraction of a full blockSize×blockSize tile that is visible.
func (b Block) Coverage(blockSize int) float64 {
	if blockSize <= 0 {
		return 0
	}
	return float64(b.Visible) / float64(blockSize*blockSize)
}

// UniqueColors returns the number of distinct visible colors.
func (b Block) UniqueColors() int { return len(b.Colors) }

// sortColors orders colors by descending count, then ascending key.
func sortColors(colors []ColorCount) {
	slices.SortFunc(colors, func(a, b ColorCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.RGBA, b.RGBA)
	})
}
