// Package grid reconstructs the block grid hidden in a pseudo pixel-art raster.
//
// # Overview
//
// AI image generators imitate pixel art by painting square blocks of roughly
// flat color, but the blocks are blurred at their edges, drift off any fixed
// lattice and sit on partially transparent backgrounds. This package recovers
// the blocks in three steps:
//
//  1. Boundary scan: [ScanBounds] finds the first, last, leftmost and rightmost
//     visible pixels under an alpha threshold.
//  2. Row scan: [ScanRow] anchors one horizontal strip at the first visible
//     pixel it contains and tiles it into blockSize×blockSize blocks, each with
//     an exact color histogram.
//  3. Assembly: [Assemble] runs the row scan over the whole bounding box and
//     computes the canvas size of the grid in block units.
//
// The resulting [Grid] is turned into a rectangle-list vector image by
// package vector.
//
// # Visibility
//
// A pixel is visible when its alpha is greater than or equal to the threshold.
// The same threshold must be used for every call in one reconstruction run:
// mixing thresholds between the boundary scan and the row scans produces a
// bounding box that does not match the blocks.
//
// # Row anchoring
//
// Blocks are not snapped to an image-wide lattice. Each row starts at the
// topmost visible Y inside its strip and the leftmost visible X on that line,
// which absorbs the sub-block drift typical of generated images.
package grid
