// internal/algorithms/pipeline.go
// Vision-library pipeline: fixed sequence of registered stages per frame
package algorithms

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
)

// CPUPipeline runs the stages in a fixed order. Every stage produces a
// new Mat and the previous one is released right away. The only state
// kept between frames is the chroma history.
type CPUPipeline struct {
	history ChromaHistory
	logger  logrus.FieldLogger
}

func NewCPUPipeline(logger logrus.FieldLogger) *CPUPipeline {
	return &CPUPipeline{logger: logger}
}

func (p *CPUPipeline) Name() string { return string(config.StrategyCPU) }

// StageParams maps the user controls onto the parameters of each stage
func StageParams(controls config.Controls) map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		StageContrast:     {"clip_limit": 2.0, "tile_grid": 8.0},
		StageWhiteBalance: {},
		StageRecolor:      {"warmth": controls.Warmth},
		StageDenoise:      {"strength": controls.Denoise},
		StageSharpen:      {"amount": controls.Sharpness},
		StageSaturation:   {"amount": controls.Saturation},
		StageUpscale:      {"factor": controls.Upscale},
	}
}

// handoff tracks the current picture and whether the pipeline owns it.
// The input frame is never closed here.
type handoff struct {
	mat   gocv.Mat
	owned bool
}

func (h *handoff) replace(next gocv.Mat) {
	if h.owned {
		h.mat.Close()
	}
	h.mat = next
	h.owned = true
}

func (h *handoff) release() {
	if h.owned {
		h.mat.Close()
		h.owned = false
	}
}

func (h *handoff) apply(name string, params map[string]interface{}) error {
	next, err := Apply(name, h.mat, params)
	if err != nil {
		next.Close()
		return errors.Wrapf(err, "stage %s", name)
	}
	h.replace(next)
	return nil
}

func (p *CPUPipeline) Process(frame core.Frame, controls config.Controls) (gocv.Mat, error) {
	start := time.Now()
	params := StageParams(controls)
	cur := &handoff{mat: frame.Mat}

	for _, name := range []string{StageContrast, StageWhiteBalance} {
		if err := cur.apply(name, params[name]); err != nil {
			cur.release()
			return gocv.NewMat(), err
		}
	}

	gray, err := IsGrayscale(cur.mat)
	if err != nil {
		cur.release()
		return gocv.NewMat(), err
	}
	if gray {
		if err := cur.apply(StageRecolor, params[StageRecolor]); err != nil {
			cur.release()
			return gocv.NewMat(), err
		}
	}

	smoothed, next, err := SmoothChroma(cur.mat, p.history)
	if err != nil {
		cur.release()
		return gocv.NewMat(), errors.Wrap(err, "stage temporal")
	}
	p.history.Close()
	p.history = next
	cur.replace(smoothed)

	for _, name := range []string{StageDenoise, StageSharpen, StageSaturation, StageUpscale} {
		if err := cur.apply(name, params[name]); err != nil {
			cur.release()
			return gocv.NewMat(), err
		}
	}

	p.logger.WithFields(logrus.Fields{
		"frame":     frame.Index,
		"grayscale": gray,
		"width":     cur.mat.Cols(),
		"height":    cur.mat.Rows(),
		"duration":  time.Since(start),
	}).Debug("PIPELINE: Frame processed")

	return cur.mat, nil
}

// Reset drops the chroma history so the next frame is not blended
func (p *CPUPipeline) Reset() {
	p.history.Close()
}

func (p *CPUPipeline) Close() {
	p.history.Close()
}
