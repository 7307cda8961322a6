// Frame-level achromatic test
package algorithms

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/metrics"
)

// GrayscaleSaturation is the mean HSV saturation (0..255) below which a
// whole frame counts as grayscale
const GrayscaleSaturation = 12.0

// IsGrayscale reports whether the frame's mean saturation is below
// GrayscaleSaturation
func IsGrayscale(input gocv.Mat) (bool, error) {
	if err := checkInput(input); err != nil {
		return false, err
	}
	mean, err := metrics.MeanSaturation(input)
	if err != nil {
		return false, errors.Wrap(err, "grayscale test")
	}
	return mean < GrayscaleSaturation, nil
}
