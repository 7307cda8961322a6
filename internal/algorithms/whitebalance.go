// Gray-world white balance
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// WhiteBalance scales each channel so its mean matches the grand mean
type WhiteBalance struct{}

func NewWhiteBalance() *WhiteBalance {
	return &WhiteBalance{}
}

// ChannelGains returns per-channel gains for a BGR image. A channel with a
// zero mean keeps gain 1.
func ChannelGains(input gocv.Mat) [3]float64 {
	mean := input.Mean()
	means := [3]float64{mean.Val1, mean.Val2, mean.Val3}
	grand := (means[0] + means[1] + means[2]) / 3.0

	var gains [3]float64
	for i, m := range means {
		if m == 0 {
			gains[i] = 1
			continue
		}
		gains[i] = grand / m
	}
	return gains
}

func (w *WhiteBalance) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	gains := ChannelGains(input)

	planes := gocv.Split(input)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("white balance: expected 3 planes, got %d", len(planes))
	}

	scaled := make([]gocv.Mat, 3)
	for i := range planes {
		scaled[i] = gocv.NewMat()
		// saturating conversion clamps to 0..255
		planes[i].ConvertToWithParams(&scaled[i], gocv.MatTypeCV8U, float32(gains[i]), 0)
	}
	defer closeAll(scaled)

	output := gocv.NewMat()
	gocv.Merge(scaled, &output)
	return output, nil
}

func (w *WhiteBalance) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{}
}

func (w *WhiteBalance) GetName() string {
	return "White Balance"
}

func (w *WhiteBalance) GetDescription() string {
	return "Gray-world white balance using channel means"
}

func (w *WhiteBalance) Validate(params map[string]interface{}) error {
	return nil
}

func (w *WhiteBalance) GetParameterInfo() []ParameterInfo {
	return nil
}
