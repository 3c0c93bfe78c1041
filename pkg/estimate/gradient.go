package estimate

import (
	"image"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// minInsideGradient guards the boundary ratio against near-zero divisors.
const minInsideGradient = 0.001

// Gradient scores candidates by tile uniformity times boundary contrast.
// Alpha is ignored; only the stored RGB values are analysed.
type Gradient struct{}

// Estimate scores every candidate and selects the highest combined score.
// Candidates are evaluated in ascending order, which also breaks ties
// toward the smaller size. Nil candidates means [DefaultCandidates].
func (Gradient) Estimate(img *image.NRGBA, candidates []int) (*Estimate, error) {
	if candidates == nil {
		candidates = DefaultCandidates
	}
	if err := errors.ValidateCandidates(candidates); err != nil {
		return nil, err
	}
	if img == nil || img.Rect.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image is empty")
	}

	sizes := slices.Sorted(slices.Values(candidates))
	mag := magnitude(img)

	scores := make([]Score, 0, len(sizes))
	for _, n := range sizes {
		scores = append(scores, analyze(img, mag, n))
	}
	return &Estimate{BlockSize: pick(scores), Scores: scores}, nil
}

// Analyze computes the metrics of a single block size.
func (Gradient) Analyze(img *image.NRGBA, blockSize int) (Score, error) {
	if err := errors.ValidateBlockSize(blockSize); err != nil {
		return Score{}, err
	}
	return analyze(img, magnitude(img), blockSize), nil
}

func analyze(img *image.NRGBA, mag []float64, n int) Score {
	s := Score{BlockSize: n, Uniformity: uniformity(img, n)}
	s.BoundaryGradient, s.InsideGradient = gradients(mag, img.Rect.Dx(), img.Rect.Dy(), n)
	s.BoundaryRatio = ratio(s.BoundaryGradient, s.InsideGradient)
	s.Combined = s.Uniformity * s.BoundaryRatio
	return s
}

// uniformity averages 1 - min(std/100, 1) over all complete n×n tiles of a
// plain grid anchored at the image origin. The std is taken over every RGB
// sample of the tile. Images smaller than one tile score 0.
func uniformity(img *image.NRGBA, n int) float64 {
	tilesX, tilesY := img.Rect.Dx()/n, img.Rect.Dy()/n
	if tilesX == 0 || tilesY == 0 {
		return 0
	}

	samples := make([]float64, 0, n*n*3)
	scores := make([]float64, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			samples = samples[:0]
			for y := ty * n; y < (ty+1)*n; y++ {
				off := img.PixOffset(img.Rect.Min.X+tx*n, img.Rect.Min.Y+y)
				for x := 0; x < n; x++ {
					p := img.Pix[off+4*x : off+4*x+3]
					samples = append(samples, float64(p[0]), float64(p[1]), float64(p[2]))
				}
			}
			_, std := stat.PopMeanStdDev(samples, nil)
			scores = append(scores, 1-math.Min(std/100, 1))
		}
	}
	return stat.Mean(scores, nil)
}

// gradients splits the gradient magnitudes into pixels on a tile edge
// (first or last column or row of a tile) and the rest, returning the mean
// of each set. An empty set has mean 0.
func gradients(mag []float64, w, h, n int) (boundary, inside float64) {
	var sumB, sumI float64
	var cntB, cntI int
	for y := 0; y < h; y++ {
		edgeY := y%n == 0 || y%n == n-1
		for x := 0; x < w; x++ {
			g := mag[y*w+x]
			if edgeY || x%n == 0 || x%n == n-1 {
				sumB += g
				cntB++
			} else {
				sumI += g
				cntI++
			}
		}
	}
	if cntB > 0 {
		boundary = sumB / float64(cntB)
	}
	if cntI > 0 {
		inside = sumI / float64(cntI)
	}
	return boundary, inside
}

// ratio divides boundary by inside gradient. Near-flat interiors divide by
// minInsideGradient instead; a fully flat image has ratio 1.
func ratio(boundary, inside float64) float64 {
	if inside < minInsideGradient {
		if boundary > 0 {
			return boundary / minInsideGradient
		}
		return 1
	}
	return boundary / inside
}
