// Bicubic upscaling
package algorithms

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Upscale resizes the frame by a factor with cubic interpolation
type Upscale struct{}

func NewUpscale() *Upscale {
	return &Upscale{}
}

// ScaledSize returns the output size for a factor, at least 1x1
func ScaledSize(cols, rows int, factor float64) image.Point {
	w := int(math.Round(float64(cols) * factor))
	h := int(math.Round(float64(rows) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Pt(w, h)
}

func (u *Upscale) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	factor := floatParam(params, "factor", 1)
	if factor == 1 || factor <= 0 {
		return input.Clone(), nil
	}

	output := gocv.NewMat()
	size := ScaledSize(input.Cols(), input.Rows(), factor)
	if err := gocv.Resize(input, &output, size, 0, 0, gocv.InterpolationCubic); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "upscale: resize")
	}
	return output, nil
}

func (u *Upscale) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"factor": 1.0,
	}
}

func (u *Upscale) GetName() string {
	return "Upscale"
}

func (u *Upscale) GetDescription() string {
	return "Bicubic resize by the selected factor"
}

func (u *Upscale) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "factor", 0, 4); err != nil {
		return err
	}
	if floatParam(params, "factor", 1) <= 0 {
		return errors.New("factor must be greater than 0")
	}
	return nil
}

func (u *Upscale) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "factor",
			Type:        "enum",
			Default:     "1",
			Description: "Output scale relative to the processed frame",
			Options:     []string{"1", "1.5", "2", "3", "4"},
		},
	}
}
