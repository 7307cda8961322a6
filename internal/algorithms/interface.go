// Registry of the CPU recolor stages
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Algorithm is one CPU pipeline stage. Apply never modifies input and
// always returns a new Mat owned by the caller.
type Algorithm interface {
	Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error)
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float", "bool", "string", "enum"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
	Options     []string    `json:"options,omitempty"` // For enum type
}

// Stage names in pipeline order
const (
	StageContrast     = "contrast"
	StageWhiteBalance = "white_balance"
	StageRecolor      = "recolor"
	StageDenoise      = "denoise"
	StageSharpen      = "sharpen"
	StageSaturation   = "saturation"
	StageUpscale      = "upscale"
)

var algorithms = make(map[string]Algorithm)

func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

func Apply(name string, input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return gocv.NewMat(), fmt.Errorf("algorithm not found: %s", name)
	}

	return algorithm.Apply(input, params)
}

func ValidateParameters(name string, params map[string]interface{}) error {
	algorithm, exists := algorithms[name]
	if !exists {
		return fmt.Errorf("algorithm not found: %s", name)
	}

	return algorithm.Validate(params)
}

func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

func GetAllAlgorithms() map[string]Algorithm {
	result := make(map[string]Algorithm)
	for name, algorithm := range algorithms {
		result[name] = algorithm
	}
	return result
}

// GetAlgorithmsByCategory groups the registered stages for display
func GetAlgorithmsByCategory() map[string][]string {
	return map[string][]string{
		"Tone": {
			StageContrast,
			StageWhiteBalance,
		},
		"Color": {
			StageRecolor,
			StageSaturation,
		},
		"Filters": {
			StageDenoise,
			StageSharpen,
		},
		"Geometry": {
			StageUpscale,
		},
	}
}

func init() {
	Register(StageContrast, NewContrast())
	Register(StageWhiteBalance, NewWhiteBalance())
	Register(StageRecolor, NewRecolor())
	Register(StageDenoise, NewDenoise())
	Register(StageSharpen, NewSharpen())
	Register(StageSaturation, NewSaturationBoost())
	Register(StageUpscale, NewUpscale())
}

func floatParam(params map[string]interface{}, name string, def float64) float64 {
	if val, ok := params[name]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return def
}

func checkRange(params map[string]interface{}, name string, min, max float64) error {
	val, ok := params[name]
	if !ok {
		return nil
	}
	var v float64
	switch n := val.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	default:
		return fmt.Errorf("%s must be a number", name)
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be between %g and %g", name, min, max)
	}
	return nil
}

func checkInput(input gocv.Mat) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if input.Channels() != 3 {
		return fmt.Errorf("input must be 3-channel BGR, got %d channels", input.Channels())
	}
	return nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
