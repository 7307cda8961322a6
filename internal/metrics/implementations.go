// Concrete implementations of frame metrics
package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// PSNR implements Peak Signal-to-Noise Ratio between input and output
type PSNR struct{}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	if original.Empty() || processed.Empty() {
		return 0, fmt.Errorf("empty images")
	}

	if original.Rows() != processed.Rows() || original.Cols() != processed.Cols() {
		return 0, fmt.Errorf("image dimensions mismatch")
	}

	mse := p.calculateMSE(original, processed)
	if mse == 0 {
		return math.Inf(1), nil
	}

	return 20 * math.Log10(255.0/math.Sqrt(mse)), nil
}

func (p *PSNR) calculateMSE(original, processed gocv.Mat) float64 {
	a := original.ToBytes()
	b := processed.ToBytes()
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	sumSquaredDiff := 0.0
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sumSquaredDiff += diff * diff
	}
	return sumSquaredDiff / float64(len(a))
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetRange() (float64, float64) {
	return 0, 100
}

// MeanSaturationMetric reports the mean HSV saturation of one side
type MeanSaturationMetric struct {
	output bool
}

// NewMeanSaturationMetric measures the processed frame when output is true,
// the original otherwise
func NewMeanSaturationMetric(output bool) *MeanSaturationMetric {
	return &MeanSaturationMetric{output: output}
}

func (m *MeanSaturationMetric) Calculate(original, processed gocv.Mat) (float64, error) {
	if m.output {
		return MeanSaturation(processed)
	}
	return MeanSaturation(original)
}

func (m *MeanSaturationMetric) GetName() string {
	if m.output {
		return "Output saturation"
	}
	return "Input saturation"
}

func (m *MeanSaturationMetric) GetRange() (float64, float64) {
	return 0, 255
}

// MeanSaturation is the mean of the HSV S channel on a 0-255 scale
func MeanSaturation(bgr gocv.Mat) (float64, error) {
	if bgr.Empty() {
		return 0, fmt.Errorf("empty image")
	}
	if bgr.Channels() != 3 {
		return 0, fmt.Errorf("expected 3 channels, got %d", bgr.Channels())
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV); err != nil {
		return 0, err
	}

	channels := gocv.Split(hsv)
	defer closeAll(channels)

	return channels[1].Mean().Val1, nil
}

// Colorfulness implements the Hasler-Suesstrunk colorfulness of the output
type Colorfulness struct{}

func NewColorfulness() *Colorfulness {
	return &Colorfulness{}
}

func (c *Colorfulness) Calculate(original, processed gocv.Mat) (float64, error) {
	if processed.Empty() || processed.Channels() != 3 {
		return 0, fmt.Errorf("expected a 3 channel image")
	}

	data := processed.ToBytes()
	n := len(data) / 3
	if n == 0 {
		return 0, fmt.Errorf("empty image")
	}

	var sumRG, sumYB, sqRG, sqYB float64
	for i := 0; i < n; i++ {
		b := float64(data[i*3])
		g := float64(data[i*3+1])
		r := float64(data[i*3+2])
		rg := r - g
		yb := 0.5*(r+g) - b
		sumRG += rg
		sumYB += yb
		sqRG += rg * rg
		sqYB += yb * yb
	}

	count := float64(n)
	meanRG, meanYB := sumRG/count, sumYB/count
	stdRG := math.Sqrt(math.Max(sqRG/count-meanRG*meanRG, 0))
	stdYB := math.Sqrt(math.Max(sqYB/count-meanYB*meanYB, 0))

	return math.Sqrt(stdRG*stdRG+stdYB*stdYB) + 0.3*math.Sqrt(meanRG*meanRG+meanYB*meanYB), nil
}

func (c *Colorfulness) GetName() string {
	return "Colorfulness"
}

func (c *Colorfulness) GetRange() (float64, float64) {
	return 0, 200
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
