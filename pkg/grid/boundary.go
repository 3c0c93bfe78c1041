package grid

import (
	"image"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// Bounds holds the four extreme visible pixels of an image.
type Bounds struct {
	First     image.Point `json:"first"`     // first visible pixel in row-major order
	Last      image.Point `json:"last"`      // last visible pixel in row-major order
	Leftmost  image.Point `json:"leftmost"`  // smallest X (then smallest Y)
	Rightmost image.Point `json:"rightmost"` // largest X (then smallest Y)
}

// Rect returns the bounding rectangle of the visible content.
// Max is exclusive, following image.Rectangle conventions.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Leftmost.X, b.First.Y, b.Rightmost.X+1, b.Last.Y+1)
}

// ScanBounds locates the content bounding box of img.
// It returns an EMPTY_CONTENT error when no pixel has alpha >= threshold.
func ScanBounds(img *image.NRGBA, threshold uint8) (Bounds, error) {
	first, ok := FirstVisible(img, threshold)
	if !ok {
		return Bounds{}, errors.New(errors.ErrCodeEmptyContent, "no visible pixels at alpha threshold %d", threshold)
	}
	// If any pixel is visible, all four scans find one.
	last, _ := LastVisible(img, threshold)
	left, _ := LeftmostVisible(img, threshold)
	right, _ := RightmostVisible(img, threshold)
	return Bounds{First: first, Last: last, Leftmost: left, Rightmost: right}, nil
}

// FirstVisible scans rows top to bottom, each row left to right.
func FirstVisible(img *image.NRGBA, threshold uint8) (image.Point, bool) {
	w, h := size(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visible(img, x, y, threshold) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// LastVisible scans rows bottom to top, each row right to left.
func LastVisible(img *image.NRGBA, threshold uint8) (image.Point, bool) {
	w, h := size(img)
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			if visible(img, x, y, threshold) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// LeftmostVisible scans columns left to right, each column top to bottom.
func LeftmostVisible(img *image.NRGBA, threshold uint8) (image.Point, bool) {
	w, h := size(img)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if visible(img, x, y, threshold) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// RightmostVisible scans columns right to left, each column top to bottom.
func RightmostVisible(img *image.NRGBA, threshold uint8) (image.Point, bool) {
	w, h := size(img)
	for x := w - 1; x >= 0; x-- {
		for y := 0; y < h; y++ {
			if visible(img, x, y, threshold) {
				return image.Pt(x, y), true
			}
		}
	}
	return image.Point{}, false
}

// size returns the width and height of a zero-origin raster.
func size(img *image.NRGBA) (int, int) {
	if img == nil {
		return 0, 0
	}
	return img.Rect.Dx(), img.Rect.Dy()
}

// visible reports whether the pixel at (x, y) meets the threshold.
// Coordinates are relative to img.Rect.Min.
func visible(img *image.NRGBA, x, y int, threshold uint8) bool {
	return img.Pix[img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)+3] >= threshold
}
