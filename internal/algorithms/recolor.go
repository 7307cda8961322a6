// Chroma shift for grayscale frames
package algorithms

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	recolorBase    = 4.0
	recolorPerWarm = 0.12
	recolorBRatio  = 1.8
	defaultWarmth  = 50.0
	warmthMax      = 100.0
)

// Recolor tints a frame by shifting the Lab a and b planes toward warm
type Recolor struct{}

func NewRecolor() *Recolor {
	return &Recolor{}
}

// ChromaShift returns the a and b offsets for a warmth value in 0..100.
// The shift never goes negative.
func ChromaShift(warmth float64) (float64, float64) {
	shift := math.Max(0, recolorBase+recolorPerWarm*warmth)
	return shift, shift * recolorBRatio
}

func (r *Recolor) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	shiftA, shiftB := ChromaShift(floatParam(params, "warmth", defaultWarmth))

	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(input, &lab, gocv.ColorBGRToLab); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "recolor: BGR to Lab")
	}

	planes := gocv.Split(lab)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("recolor: expected 3 Lab planes, got %d", len(planes))
	}

	a := gocv.NewMat()
	defer a.Close()
	b := gocv.NewMat()
	defer b.Close()
	planes[1].ConvertToWithParams(&a, gocv.MatTypeCV8U, 1, float32(shiftA))
	planes[2].ConvertToWithParams(&b, gocv.MatTypeCV8U, 1, float32(shiftB))

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{planes[0], a, b}, &merged)

	output := gocv.NewMat()
	if err := gocv.CvtColor(merged, &output, gocv.ColorLabToBGR); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "recolor: Lab to BGR")
	}
	return output, nil
}

func (r *Recolor) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"warmth": defaultWarmth,
	}
}

func (r *Recolor) GetName() string {
	return "Recolor"
}

func (r *Recolor) GetDescription() string {
	return "Warm tint for achromatic frames via Lab chroma shift"
}

func (r *Recolor) Validate(params map[string]interface{}) error {
	return checkRange(params, "warmth", 0, warmthMax)
}

func (r *Recolor) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "warmth",
			Type:        "float",
			Min:         0.0,
			Max:         warmthMax,
			Default:     defaultWarmth,
			Description: "Warm bias of the synthesized tint",
		},
	}
}
