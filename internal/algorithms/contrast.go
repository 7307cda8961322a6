// Contrast normalization on the lightness channel
package algorithms

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Contrast applies CLAHE to the L channel of the Lab representation
type Contrast struct{}

func NewContrast() *Contrast {
	return &Contrast{}
}

func (c *Contrast) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	clipLimit := floatParam(params, "clip_limit", 2.0)
	tileGrid := int(floatParam(params, "tile_grid", 8))
	if tileGrid < 1 {
		tileGrid = 1
	}

	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(input, &lab, gocv.ColorBGRToLab); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "contrast: BGR to Lab")
	}

	planes := gocv.Split(lab)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), fmt.Errorf("contrast: expected 3 Lab planes, got %d", len(planes))
	}

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Pt(tileGrid, tileGrid))
	defer clahe.Close()

	lightness := gocv.NewMat()
	defer lightness.Close()
	clahe.Apply(planes[0], &lightness)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{lightness, planes[1], planes[2]}, &merged)

	output := gocv.NewMat()
	if err := gocv.CvtColor(merged, &output, gocv.ColorLabToBGR); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "contrast: Lab to BGR")
	}
	return output, nil
}

func (c *Contrast) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"clip_limit": 2.0,
		"tile_grid":  8.0,
	}
}

func (c *Contrast) GetName() string {
	return "Contrast (CLAHE)"
}

func (c *Contrast) GetDescription() string {
	return "Contrast-limited adaptive histogram equalization on Lab lightness"
}

func (c *Contrast) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "clip_limit", 0.1, 40); err != nil {
		return err
	}
	return checkRange(params, "tile_grid", 1, 64)
}

func (c *Contrast) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "clip_limit",
			Type:        "float",
			Min:         0.1,
			Max:         40.0,
			Default:     2.0,
			Description: "Histogram clip limit",
		},
		{
			Name:        "tile_grid",
			Type:        "int",
			Min:         1,
			Max:         64,
			Default:     8,
			Description: "Tiles per side of the equalization grid",
		},
	}
}
