package grid

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// Options configures [Assemble].
type Options struct {
	BlockSize int   // block edge length in pixels
	Threshold uint8 // minimum alpha of a visible pixel
	Workers   int   // concurrent row scans; values <= 1 scan sequentially
}

// Grid is the reconstructed block grid of one image.
type Grid struct {
	BlockSize int    `json:"block_size"`
	Threshold uint8  `json:"threshold"`
	Bounds    Bounds `json:"bounds"`
	Rows      []Row  `json:"rows"`

	// LeftRef and TopRef are the image coordinates of grid cell (0, 0).
	LeftRef int `json:"left_ref"`
	TopRef  int `json:"top_ref"`

	// Width and Height are the canvas size in block units.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BlockCount returns the number of blocks across all rows.
func (g *Grid) BlockCount() int {
	n := 0
	for _, r := range g.Rows {
		n += len(r.Blocks)
	}
	return n
}

// Cell maps a block origin in image pixels to its grid cell.
func (g *Grid) Cell(origin image.Point) image.Point {
	return image.Pt(
		floorDiv(origin.X-g.LeftRef, g.BlockSize),
		floorDiv(origin.Y-g.TopRef, g.BlockSize),
	)
}

// Assemble scans img strip by strip and builds its block grid.
//
// Strips start at the first visible line and advance by the block size until
// they pass the last visible line. Strips without content are omitted; if
// none has content the result is a NO_ROWS error. An image without any
// visible pixel fails earlier with EMPTY_CONTENT.
//
// With opts.Workers > 1 strips are scanned concurrently; the resulting grid
// is identical to a sequential scan.
func Assemble(ctx context.Context, img *image.NRGBA, opts Options) (*Grid, error) {
	if err := errors.ValidateBlockSize(opts.BlockSize); err != nil {
		return nil, err
	}
	bounds, err := ScanBounds(img, opts.Threshold)
	if err != nil {
		return nil, err
	}

	var starts []int
	for y := bounds.First.Y; y <= bounds.Last.Y; y += opts.BlockSize {
		starts = append(starts, y)
	}

	scanned, err := scanRows(ctx, img, starts, opts)
	if err != nil {
		return nil, err
	}

	g := &Grid{
		BlockSize: opts.BlockSize,
		Threshold: opts.Threshold,
		Bounds:    bounds,
		LeftRef:   bounds.Leftmost.X,
	}
	for _, r := range scanned {
		if r == nil {
			continue
		}
		r.Number = len(g.Rows) + 1
		g.Rows = append(g.Rows, *r)
	}
	if len(g.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeNoRows, "no rows detected at block size %d", opts.BlockSize)
	}

	g.TopRef = g.Rows[0].Blocks[0].Origin.Y
	g.Width = floorDiv(bounds.Rightmost.X-g.LeftRef, opts.BlockSize) + 1
	g.Height = floorDiv(bounds.Last.Y-g.TopRef, opts.BlockSize) + 1
	return g, nil
}

// scanRows runs ScanRow for every strip start. The result is indexed like
// starts, with nil marking strips without content.
func scanRows(ctx context.Context, img *image.NRGBA, starts []int, opts Options) ([]*Row, error) {
	rows := make([]*Row, len(starts))
	scan := func(i int) {
		if r, ok := ScanRow(img, starts[i], opts.BlockSize, opts.Threshold); ok {
			rows[i] = &r
		}
	}

	if opts.Workers <= 1 {
		for i := range starts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scan(i)
		}
		return rows, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scan(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
