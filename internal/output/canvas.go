// Output sink drawing committed frames onto a canvas
package output

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Canvas displays one picture at a time. Draw returns once the picture is
// visible.
type Canvas interface {
	Draw(img image.Image)
}

// CanvasFunc adapts a function to Canvas
type CanvasFunc func(img image.Image)

func (f CanvasFunc) Draw(img image.Image) { f(img) }

// CanvasSink converts each committed frame to an image and draws it. It
// keeps a copy of the last frame for samplers such as the recorder.
type CanvasSink struct {
	canvas Canvas

	mu   sync.Mutex
	last gocv.Mat
	has  bool
	puts uint64
}

func NewCanvasSink(canvas Canvas) *CanvasSink {
	return &CanvasSink{canvas: canvas}
}

// Put draws mat synchronously. mat is not retained.
func (s *CanvasSink) Put(mat gocv.Mat) error {
	if mat.Empty() {
		return errors.New("cannot draw empty frame")
	}

	img, err := mat.ToImage()
	if err != nil {
		return errors.Wrap(err, "converting frame for display")
	}
	if s.canvas != nil {
		s.canvas.Draw(img)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has {
		s.last.Close()
	}
	s.last = mat.Clone()
	s.has = true
	s.puts++
	return nil
}

// Snapshot returns a copy of the last committed frame, or false if nothing
// has been drawn yet. The caller closes the copy.
func (s *CanvasSink) Snapshot() (gocv.Mat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		return gocv.NewMat(), false
	}
	return s.last.Clone(), true
}

// Frames counts committed frames
func (s *CanvasSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Clear forgets the last frame
func (s *CanvasSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has {
		s.last.Close()
		s.has = false
	}
}

func (s *CanvasSink) Close() {
	s.Clear()
}
