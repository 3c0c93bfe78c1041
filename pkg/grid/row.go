package grid

import (
	"fmt"
	"image"

	"github.com/matzehuels/pixelforge/pkg/raster"
)

// minTrailingCoverage is the visible fraction below which blocks at the end of
// a row are treated as anti-aliasing fringe and dropped.
const minTrailingCoverage = 0.5

// Row is one horizontal strip of blocks sharing an origin Y.
type Row struct {
	Number     int         `json:"number"` // 1-based position in the grid, cosmetic
	BlockSize  int         `json:"block_size"`
	Blocks     []Block     `json:"blocks"`
	FirstPixel image.Point `json:"first_pixel"` // visible pixel that anchors the row
	LastPixel  image.Point `json:"last_pixel"`  // bottom-right corner of the last kept block
}

// Name returns the display name of the row ("Row1", "Row2", ...).
func (r Row) Name() string { return fmt.Sprintf("Row%d", r.Number) }

// Y returns the origin Y shared by all blocks of the row.
func (r Row) Y() int { return r.FirstPixel.Y }

// ScanRow partitions the strip [startY, startY+blockSize) of img into blocks.
//
// The row is anchored at the topmost visible line inside the strip and the
// leftmost visible pixel on that line. Tiles advance rightward in steps of
// blockSize until the origin leaves the image; tiles without visible pixels
// produce no block but do not end the scan. Trailing blocks whose visible
// fraction is below one half are dropped.
//
// The second result is false when the strip holds no content, including when
// the arguments do not describe a strip inside the image.
func ScanRow(img *image.NRGBA, startY, blockSize int, threshold uint8) (Row, bool) {
	w, h := size(img)
	if blockSize <= 0 || startY < 0 || startY >= h || w == 0 {
		return Row{}, false
	}

	topY := -1
	for y := startY; y < min(startY+blockSize, h) && topY < 0; y++ {
		for x := 0; x < w; x++ {
			if visible(img, x, y, threshold) {
				topY = y
				break
			}
		}
	}
	if topY < 0 {
		return Row{}, false
	}

	firstX := -1
	for x := 0; x < w; x++ {
		if visible(img, x, topY, threshold) {
			firstX = x
			break
		}
	}
	if firstX < 0 {
		return Row{}, false
	}

	var blocks []Block
	for i := 0; ; i++ {
		origin := image.Pt(firstX+i*blockSize, topY)
		if origin.X >= w {
			break
		}
		if b := scanBlock(img, origin, blockSize, threshold); b.Visible > 0 {
			b.Index = i
			blocks = append(blocks, b)
		}
	}

	for len(blocks) > 0 && blocks[len(blocks)-1].Coverage(blockSize) < minTrailingCoverage {
		blocks = blocks[:len(blocks)-1]
	}
	if len(blocks) == 0 {
		return Row{}, false
	}

	last := blocks[len(blocks)-1].Origin
	return Row{
		BlockSize:  blockSize,
		Blocks:     blocks,
		FirstPixel: image.Pt(firstX, topY),
		LastPixel:  image.Pt(last.X+blockSize-1, last.Y+blockSize-1),
	}, true
}

// scanBlock gathers the blockSize×blockSize footprint at origin, clipped to
// the image, into a Block with an exact color histogram of visible pixels.
func scanBlock(img *image.NRGBA, origin image.Point, blockSize int, threshold uint8) Block {
	w, h := size(img)
	b := Block{
		Origin: origin,
		Width:  min(blockSize, w-origin.X),
		Height: min(blockSize, h-origin.Y),
	}

	index := make(map[string]int)
	for y := origin.Y; y < origin.Y+b.Height; y++ {
		for x := origin.X; x < origin.X+b.Width; x++ {
			c := img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			if c.A < threshold {
				b.Skipped++
				continue
			}
			b.Visible++
			key := raster.HexRGBA(c)
			i, ok := index[key]
			if !ok {
				i = len(b.Colors)
				index[key] = i
				b.Colors = append(b.Colors, ColorCount{RGBA: key, Color: c})
			}
			b.Colors[i].Count++
			b.Colors[i].Coords = append(b.Colors[i].Coords, image.Pt(x, y))
		}
	}
	sortColors(b.Colors)
	return b
}
