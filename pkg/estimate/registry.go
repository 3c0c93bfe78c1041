package estimate

import (
	"image"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// Variant names accepted by [New].
const (
	VariantGradient = "gradient"
	VariantNone     = "none"
)

// New creates an estimator by variant name. An empty name selects the
// gradient estimator; "none" yields one whose calls fail with UNSUPPORTED.
func New(variant string) (Estimator, error) {
	switch variant {
	case VariantGradient, "":
		return Gradient{}, nil
	case VariantNone:
		return unsupported{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown estimator variant: %s", variant)
	}
}

type unsupported struct{}

func (unsupported) Estimate(*image.NRGBA, []int) (*Estimate, error) {
	return nil, errors.New(errors.ErrCodeUnsupported, "block size estimation is disabled")
}
