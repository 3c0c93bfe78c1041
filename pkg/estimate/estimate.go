// Package estimate infers the block size of pseudo pixel art.
//
// An [Estimator] scores each candidate block size and picks the one whose
// tiling best explains the image: flat colors inside tiles and strong
// gradients on tile edges. The default [Gradient] estimator multiplies a
// per-tile uniformity score by the ratio of Sobel gradient magnitude on tile
// boundaries to the magnitude inside tiles.
//
// Estimators are selected by name with [New], so front ends can switch or
// disable detection through configuration.
package estimate

import (
	"cmp"
	"image"
	"slices"
)

// DefaultCandidates are the block sizes tried when none are given.
var DefaultCandidates = []int{8, 16, 24, 32}

// Estimator selects a block size from candidates.
type Estimator interface {
	Estimate(img *image.NRGBA, candidates []int) (*Estimate, error)
}

// Score holds the metrics of one candidate block size.
type Score struct {
	BlockSize        int     `json:"block_size" yaml:"block_size"`
	Uniformity       float64 `json:"uniformity" yaml:"uniformity"`
	BoundaryGradient float64 `json:"boundary_gradient" yaml:"boundary_gradient"`
	InsideGradient   float64 `json:"inside_gradient" yaml:"inside_gradient"`
	BoundaryRatio    float64 `json:"boundary_ratio" yaml:"boundary_ratio"`
	Combined         float64 `json:"combined_score" yaml:"combined_score"`
}

// Estimate is the outcome of one estimation run.
type Estimate struct {
	BlockSize int     `json:"block_size" yaml:"block_size"`
	Scores    []Score `json:"scores" yaml:"scores"` // ascending block size
}

// Best returns the score of the selected block size.
func (e *Estimate) Best() Score {
	for _, s := range e.Scores {
		if s.BlockSize == e.BlockSize {
			return s
		}
	}
	return Score{}
}

// Ranked returns the scores ordered by descending combined score. Equal
// scores keep ascending block size order.
func (e *Estimate) Ranked() []Score {
	ranked := slices.Clone(e.Scores)
	slices.SortStableFunc(ranked, func(a, b Score) int {
		return cmp.Compare(b.Combined, a.Combined)
	})
	return ranked
}

// pick returns the block size with the highest combined score, preferring
// the earliest score on ties.
func pick(scores []Score) int {
	best := 0
	for i, s := range scores {
		if s.Combined > scores[best].Combined {
			best = i
		}
	}
	return scores[best].BlockSize
}
