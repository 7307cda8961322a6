// Single-frame sources
package io

import (
	"context"
	"fmt"
	"image"
	stdio "io"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

// ClipSource replays an in-memory list of BGR frames. A still image is a
// clip of one frame.
type ClipSource struct {
	mu     sync.Mutex
	frames []gocv.Mat
	fps    float64
	next   int
	closed bool
}

// NewClipSource takes ownership of frames, which must all be 8-bit BGR
func NewClipSource(frames []gocv.Mat, fps float64) (*ClipSource, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("clip has no frames")
	}
	for i, f := range frames {
		if err := core.ValidateMat(f); err != nil {
			return nil, fmt.Errorf("clip frame %d: %w", i, err)
		}
	}
	return &ClipSource{frames: frames, fps: fps}, nil
}

// OpenImage loads a still image as a one-frame source with no frame rate
func OpenImage(path string, logger logrus.FieldLogger) (*ClipSource, error) {
	mat, err := LoadImage(path, logger)
	if err != nil {
		return nil, err
	}
	return NewClipSource([]gocv.Mat{mat}, 0)
}

// Play rewinds the clip
func (c *ClipSource) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("clip is closed")
	}
	c.next = 0
	return nil
}

// Next returns a copy of the next frame; the clip keeps its own
func (c *ClipSource) Next(ctx context.Context) (core.Frame, error) {
	if err := ctx.Err(); err != nil {
		return core.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.Frame{}, fmt.Errorf("clip is closed")
	}
	if c.next >= len(c.frames) {
		return core.Frame{}, stdio.EOF
	}

	index := c.next
	c.next++
	return core.NewFrame(c.frames[index].Clone(), index, 0)
}

func (c *ClipSource) FPS() float64 { return c.fps }

func (c *ClipSource) Size() image.Point {
	return image.Pt(c.frames[0].Cols(), c.frames[0].Rows())
}

func (c *ClipSource) FrameCount() int { return len(c.frames) }

func (c *ClipSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for i := range c.frames {
		c.frames[i].Close()
	}
	return nil
}
