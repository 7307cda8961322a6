// Frame snapshot passed through the per-frame pipelines
package core

import (
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// maxDimension bounds frame sizes to keep per-stage buffers reasonable
const maxDimension = 16384

// Frame is one BGR 8-bit picture at a time index. The holder owns Mat and
// must Close it once the frame has been consumed.
type Frame struct {
	Mat   gocv.Mat
	Index int
	PTS   time.Duration
}

// NewFrame wraps mat after validating it. Ownership of mat moves to the frame.
func NewFrame(mat gocv.Mat, index int, pts time.Duration) (Frame, error) {
	if err := ValidateMat(mat); err != nil {
		return Frame{}, err
	}
	return Frame{Mat: mat, Index: index, PTS: pts}, nil
}

// FrameFromImage converts a Go image into a BGR frame
func FrameFromImage(img image.Image, index int, pts time.Duration) (Frame, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Frame{}, errors.Wrap(err, "failed to convert image to frame")
	}
	frame, err := NewFrame(mat, index, pts)
	if err != nil {
		mat.Close()
		return Frame{}, err
	}
	return frame, nil
}

// Width returns the frame width in pixels
func (f Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels
func (f Frame) Height() int { return f.Mat.Rows() }

// Size returns the frame size as a point
func (f Frame) Size() image.Point {
	return image.Pt(f.Mat.Cols(), f.Mat.Rows())
}

// Close releases the pixel buffer. Closing twice is harmless.
func (f *Frame) Close() {
	f.Mat.Close()
}

// ValidateMat checks a Mat is a usable BGR frame
func ValidateMat(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("frame is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported frame type %v, want 8-bit BGR", mat.Type())
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("frame too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}

// ToBGR converts 1 or 4 channel input to the BGR layout frames use.
// The returned Mat is always new.
func ToBGR(mat gocv.Mat) (gocv.Mat, error) {
	out := gocv.NewMat()
	var err error
	switch mat.Channels() {
	case 3:
		mat.CopyTo(&out)
	case 1:
		err = gocv.CvtColor(mat, &out, gocv.ColorGrayToBGR)
	case 4:
		err = gocv.CvtColor(mat, &out, gocv.ColorBGRAToBGR)
	default:
		err = fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}
	if err != nil {
		out.Close()
		return gocv.NewMat(), err
	}
	return out, nil
}
