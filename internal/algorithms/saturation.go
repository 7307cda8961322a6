// Global saturation boost
package algorithms

import (
	"fmt"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SaturationBoost scales HSV saturation by 1 + amount/100
type SaturationBoost struct{}

func NewSaturationBoost() *SaturationBoost {
	return &SaturationBoost{}
}

func (s *SaturationBoost) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	amount := floatParam(params, "amount", 50)
	if amount <= 0 {
		return input.Clone(), nil
	}
	factor := 1 + amount/100.0

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(input, &hsv, gocv.ColorBGRToHSV); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "saturation: BGR to HSV")
	}

	planes := gocv.Split(hsv)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("saturation: expected 3 HSV planes, got %d", len(planes))
	}

	boosted := gocv.NewMat()
	defer boosted.Close()
	planes[1].ConvertToWithParams(&boosted, gocv.MatTypeCV8U, float32(factor), 0)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{planes[0], boosted, planes[2]}, &merged)

	output := gocv.NewMat()
	if err := gocv.CvtColor(merged, &output, gocv.ColorHSVToBGR); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "saturation: HSV to BGR")
	}
	return output, nil
}

func (s *SaturationBoost) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"amount": 50.0,
	}
}

func (s *SaturationBoost) GetName() string {
	return "Saturation"
}

func (s *SaturationBoost) GetDescription() string {
	return "Multiplies HSV saturation, clamped at full saturation"
}

func (s *SaturationBoost) Validate(params map[string]interface{}) error {
	return checkRange(params, "amount", 0, 100)
}

func (s *SaturationBoost) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "amount",
			Type:        "float",
			Min:         0.0,
			Max:         100.0,
			Default:     50.0,
			Description: "Saturation increase in percent",
		},
	}
}
