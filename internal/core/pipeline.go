// internal/core/pipeline.go
// Contract shared by the shader and vision-library pipelines
package core

import (
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
)

// Pipeline turns one frame into one output picture. Process runs to
// completion synchronously; the returned Mat is owned by the caller.
// Implementations may keep state between calls (temporal smoothing) but
// are never invoked concurrently.
type Pipeline interface {
	Name() string
	Process(frame Frame, controls config.Controls) (gocv.Mat, error)
	// Reset drops any state carried between frames
	Reset()
	Close()
}

// PipelineFunc adapts a plain function to the Pipeline interface
type PipelineFunc func(frame Frame, controls config.Controls) (gocv.Mat, error)

func (f PipelineFunc) Name() string { return "func" }

func (f PipelineFunc) Process(frame Frame, controls config.Controls) (gocv.Mat, error) {
	return f(frame, controls)
}

func (f PipelineFunc) Reset() {}

func (f PipelineFunc) Close() {}
