// internal/gui/control_panel.go
// Sliders and selectors bound to the live control state
package gui

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/config"
)

var upscaleOptions = []string{"1", "1.5", "2", "3", "4"}

// ControlPanel writes every change straight into the ControlState; the
// scheduler picks it up on the next tick
type ControlPanel struct {
	state  *config.ControlState
	logger logrus.FieldLogger

	container *fyne.Container

	warmth     *widget.Slider
	saturation *widget.Slider
	sharpness  *widget.Slider
	denoise    *widget.Slider
	upscale    *widget.Select
	resolution *widget.Select
	strategy   *widget.Select

	onStrategyChanged func(config.Strategy)
}

func NewControlPanel(state *config.ControlState, strategy config.Strategy, logger logrus.FieldLogger) *ControlPanel {
	panel := &ControlPanel{
		state:  state,
		logger: logger,
	}
	panel.initializeUI(strategy)
	return panel
}

func (cp *ControlPanel) initializeUI(strategy config.Strategy) {
	initial := cp.state.Snapshot()

	cp.warmth = cp.newSlider(initial.Warmth, func(c *config.Controls, v float64) { c.Warmth = v })
	cp.saturation = cp.newSlider(initial.Saturation, func(c *config.Controls, v float64) { c.Saturation = v })
	cp.sharpness = cp.newSlider(initial.Sharpness, func(c *config.Controls, v float64) { c.Sharpness = v })
	cp.denoise = cp.newSlider(initial.Denoise, func(c *config.Controls, v float64) { c.Denoise = v })

	cp.upscale = widget.NewSelect(upscaleOptions, func(value string) {
		factor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}
		cp.state.Update(func(c *config.Controls) { c.Upscale = factor })
		cp.logger.WithField("upscale", factor).Debug("CONTROLS: Upscale changed")
	})
	cp.upscale.SetSelected(strconv.FormatFloat(initial.Upscale, 'f', -1, 64))

	cp.resolution = widget.NewSelect([]string{string(config.ResolutionQuality), string(config.ResolutionFast)}, func(value string) {
		mode := config.ResolutionMode(value)
		cp.state.Update(func(c *config.Controls) { c.Resolution = mode })
		cp.logger.WithField("resolution", mode).Debug("CONTROLS: Resolution mode changed")
	})
	cp.resolution.SetSelected(string(initial.Resolution))

	cp.strategy = widget.NewSelect([]string{string(config.StrategyGPU), string(config.StrategyCPU)}, func(value string) {
		if cp.onStrategyChanged != nil {
			cp.onStrategyChanged(config.Strategy(value))
		}
	})
	cp.strategy.SetSelected(string(strategy))

	form := container.NewVBox(
		sliderRow("Warmth", cp.warmth),
		sliderRow("Saturation", cp.saturation),
		sliderRow("Sharpness", cp.sharpness),
		sliderRow("Denoise", cp.denoise),
		widget.NewSeparator(),
		container.NewBorder(nil, nil, widget.NewLabel("Upscale"), nil, cp.upscale),
		container.NewBorder(nil, nil, widget.NewLabel("Mode"), nil, cp.resolution),
		container.NewBorder(nil, nil, widget.NewLabel("Pipeline"), nil, cp.strategy),
	)

	cp.container = container.NewVBox(widget.NewCard("Controls", "", form))
}

func (cp *ControlPanel) newSlider(initial float64, apply func(*config.Controls, float64)) *widget.Slider {
	slider := widget.NewSlider(0, 100)
	slider.Step = 1
	slider.Value = initial
	slider.OnChanged = func(value float64) {
		cp.state.Update(func(c *config.Controls) { apply(c, value) })
	}
	return slider
}

func sliderRow(name string, slider *widget.Slider) fyne.CanvasObject {
	value := widget.NewLabel(fmt.Sprintf("%.0f", slider.Value))
	onChanged := slider.OnChanged
	slider.OnChanged = func(v float64) {
		value.SetText(fmt.Sprintf("%.0f", v))
		onChanged(v)
	}
	return container.NewBorder(nil, nil, widget.NewLabel(name), value, slider)
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *ControlPanel) SetStrategyCallback(fn func(config.Strategy)) {
	cp.onStrategyChanged = fn
}

// SetPipelineLocked disables the pipeline selector while a run is active
func (cp *ControlPanel) SetPipelineLocked(locked bool) {
	if locked {
		cp.strategy.Disable()
	} else {
		cp.strategy.Enable()
	}
}
