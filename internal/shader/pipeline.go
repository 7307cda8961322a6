// internal/shader/pipeline.go
// Shader pipeline: upload, one program evaluation per pixel, read back
package shader

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
)

// Pipeline is the fragment-shader strategy. The program, texture and
// surface are created once and reused every tick.
type Pipeline struct {
	program  *Program
	uploader *Uploader
	workers  int
	logger   logrus.FieldLogger
}

// NewPipeline compiles the recolor program. A compile failure is returned
// as core.ErrInitFailed.
func NewPipeline(logger logrus.FieldLogger) (*Pipeline, error) {
	program, err := NewProgram()
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"spirv_words": len(program.SPIRV),
		"entry":       FragmentEntryPoint,
	}).Info("SHADER: Program compiled")
	return newPipeline(program, logger), nil
}

func newPipeline(program *Program, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		program:  program,
		uploader: NewUploader(),
		workers:  runtime.NumCPU(),
		logger:   logger,
	}
}

func (p *Pipeline) Name() string { return string(config.StrategyGPU) }

// Process uploads the frame, evaluates the fragment program for every
// pixel of the capped surface and returns the surface as a new Mat.
func (p *Pipeline) Process(frame core.Frame, controls config.Controls) (gocv.Mat, error) {
	img, err := frame.Mat.ToImage()
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to read frame")
	}

	before := p.uploader.Reallocations()
	tex, surface, err := p.uploader.Upload(img, controls.Resolution.MaxHeight())
	if err != nil {
		return gocv.NewMat(), err
	}
	if p.uploader.Reallocations() != before {
		p.logger.WithFields(logrus.Fields{
			"width":  surface.Width,
			"height": surface.Height,
		}).Debug("SHADER: Surface resized")
	}

	warm, sat, sharp := controls.Normalized()
	Render(tex, surface, Uniforms{Warm: warm, Sat: sat, Sharp: sharp}, p.workers)

	view, err := gocv.NewMatFromBytes(surface.Height, surface.Width, gocv.MatTypeCV8UC3, surface.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to read back surface")
	}
	defer view.Close()

	// the surface is reused next tick, so hand out a copy
	return view.Clone(), nil
}

// Reset is a no-op: the shader keeps no state between frames
func (p *Pipeline) Reset() {}

func (p *Pipeline) Close() {}

// Render evaluates Shade for every surface pixel, splitting rows across
// workers. tex and surface must have the same size.
func Render(tex *Texture, surface *Surface, u Uniforms, workers int) {
	if workers < 1 {
		workers = 1
	}
	if workers > surface.Height {
		workers = surface.Height
	}

	rowsPer := (surface.Height + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < surface.Height; start += rowsPer {
		end := start + rowsPer
		if end > surface.Height {
			end = surface.Height
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				for x := 0; x < surface.Width; x++ {
					surface.Set(x, y, Shade(tex, x, y, u))
				}
			}
		}(start, end)
	}
	wg.Wait()
}
