// Filter stages for noise reduction and enhancement
package algorithms

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	denoiseDiameter   = 7
	denoiseColorScale = 1.5
	denoiseSpaceScale = 0.15

	sharpenSigmaBase   = 0.5
	sharpenSigmaScale  = 2.5
	sharpenWeightScale = 1.5
)

// Denoise implements edge-preserving smoothing with a bilateral filter
type Denoise struct{}

// NewDenoise creates a new denoise stage
func NewDenoise() *Denoise {
	return &Denoise{}
}

// DenoiseSigmas returns the color and space sigma for a strength in 0..100
func DenoiseSigmas(strength float64) (float64, float64) {
	return denoiseColorScale * strength, denoiseSpaceScale * strength
}

func (d *Denoise) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	strength := floatParam(params, "strength", 0)
	if strength <= 0 {
		return input.Clone(), nil
	}

	sigmaColor, sigmaSpace := DenoiseSigmas(strength)

	output := gocv.NewMat()
	if err := gocv.BilateralFilter(input, &output, denoiseDiameter, sigmaColor, sigmaSpace); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "denoise: bilateral filter")
	}
	return output, nil
}

func (d *Denoise) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"strength": 0.0,
	}
}

func (d *Denoise) GetName() string {
	return "Denoise"
}

func (d *Denoise) GetDescription() string {
	return "Bilateral filter for edge-preserving smoothing"
}

func (d *Denoise) Validate(params map[string]interface{}) error {
	return checkRange(params, "strength", 0, 100)
}

func (d *Denoise) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "strength",
			Type:        "float",
			Min:         0.0,
			Max:         100.0,
			Default:     0.0,
			Description: "Scales both the color and spatial sigma; 0 disables",
		},
	}
}

// Sharpen implements an unsharp mask over a Gaussian blur
type Sharpen struct{}

// NewSharpen creates a new sharpen stage
func NewSharpen() *Sharpen {
	return &Sharpen{}
}

// UnsharpParams returns the blur sigma and mask weight for an amount in 0..100
func UnsharpParams(amount float64) (float64, float64) {
	s := amount / 100.0
	return sharpenSigmaBase + sharpenSigmaScale*s, sharpenWeightScale * s
}

func (s *Sharpen) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	amount := floatParam(params, "amount", 0)
	if amount <= 0 {
		return input.Clone(), nil
	}

	sigma, weight := UnsharpParams(amount)

	blurred := gocv.NewMat()
	defer blurred.Close()
	// zero kernel size lets the blur derive it from sigma
	if err := gocv.GaussianBlur(input, &blurred, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "sharpen: gaussian blur")
	}

	output := gocv.NewMat()
	gocv.AddWeighted(input, 1+weight, blurred, -weight, 0, &output)
	return output, nil
}

func (s *Sharpen) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"amount": 30.0,
	}
}

func (s *Sharpen) GetName() string {
	return "Sharpen"
}

func (s *Sharpen) GetDescription() string {
	return "Unsharp mask; larger amounts widen the blur and the mask weight"
}

func (s *Sharpen) Validate(params map[string]interface{}) error {
	return checkRange(params, "amount", 0, 100)
}

func (s *Sharpen) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "amount",
			Type:        "float",
			Min:         0.0,
			Max:         100.0,
			Default:     30.0,
			Description: "Sharpening amount; 0 disables",
		},
	}
}
