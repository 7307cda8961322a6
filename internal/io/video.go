// Video file source backed by the OpenCV capture API
package io

import (
	"context"
	"fmt"
	"image"
	stdio "io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

// VideoSource decodes frames from a video file in presentation order
type VideoSource struct {
	path    string
	logger  logrus.FieldLogger
	capture *gocv.VideoCapture

	mu       sync.Mutex
	fps      float64
	size     image.Point
	count    int
	index    int
	finished bool
	closed   bool
}

// OpenVideo opens path for decoding. The first frame is not read until Next.
func OpenVideo(path string, logger logrus.FieldLogger) (*VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	v := &VideoSource{
		path:    path,
		logger:  logger,
		capture: capture,
		fps:     capture.Get(gocv.VideoCaptureFPS),
		size: image.Pt(
			int(capture.Get(gocv.VideoCaptureFrameWidth)),
			int(capture.Get(gocv.VideoCaptureFrameHeight)),
		),
		count: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if v.fps < 0 {
		v.fps = 0
	}
	if v.count < 0 {
		v.count = 0
	}

	logger.WithFields(logrus.Fields{
		"filepath": path,
		"fps":      v.fps,
		"width":    v.size.X,
		"height":   v.size.Y,
		"frames":   v.count,
	}).Info("LOADER: Video opened")

	return v, nil
}

// Play readies decoding. A source that reached its end is rewound so a
// new run starts from the first frame.
func (v *VideoSource) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || !v.capture.IsOpened() {
		return fmt.Errorf("video %s is not open", v.path)
	}
	if v.finished {
		v.capture.Set(gocv.VideoCapturePosFrames, 0)
		v.index = 0
		v.finished = false
	}
	return nil
}

func (v *VideoSource) Next(ctx context.Context) (core.Frame, error) {
	if err := ctx.Err(); err != nil {
		return core.Frame{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return core.Frame{}, fmt.Errorf("video %s is closed", v.path)
	}
	if v.finished {
		return core.Frame{}, stdio.EOF
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		v.finished = true
		return core.Frame{}, stdio.EOF
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		bgr, err := core.ToBGR(mat)
		mat.Close()
		if err != nil {
			return core.Frame{}, errors.Wrap(err, "converting decoded frame")
		}
		mat = bgr
	}

	frame, err := core.NewFrame(mat, v.index, v.pts(v.index))
	if err != nil {
		mat.Close()
		return core.Frame{}, err
	}
	v.index++
	return frame, nil
}

func (v *VideoSource) pts(index int) time.Duration {
	if v.fps <= 0 {
		return 0
	}
	return time.Duration(float64(index) / v.fps * float64(time.Second))
}

func (v *VideoSource) FPS() float64 { return v.fps }

func (v *VideoSource) Size() image.Point { return v.size }

func (v *VideoSource) FrameCount() int { return v.count }

func (v *VideoSource) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	return v.capture.Close()
}
