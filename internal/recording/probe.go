package recording

import (
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

// ErrUnsupported is core.ErrRecordingUnsupported, re-exported for callers
// that only import this package
var ErrUnsupported = core.ErrRecordingUnsupported

const probeSize = 16

// Probe checks once whether recordings can be encoded: a JPEG sample and
// a short video written with codec into dir. Failure wraps ErrUnsupported.
func Probe(dir, codec string) error {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(64, 128, 192, 0), probeSize, probeSize, gocv.MatTypeCV8UC3)
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return errors.Wrapf(ErrUnsupported, "jpeg encoder: %v", err)
	}
	buf.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(ErrUnsupported, "recording directory: %v", err)
	}
	f, err := os.CreateTemp(dir, "probe-*.avi")
	if err != nil {
		return errors.Wrapf(ErrUnsupported, "recording directory: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	writer, err := gocv.VideoWriterFile(path, codec, DefaultFPS, probeSize, probeSize, true)
	if err != nil {
		return errors.Wrapf(ErrUnsupported, "video writer: %v", err)
	}
	defer writer.Close()
	if !writer.IsOpened() {
		return errors.Wrapf(ErrUnsupported, "codec %s unavailable", codec)
	}
	if err := writer.Write(mat); err != nil {
		return errors.Wrapf(ErrUnsupported, "video writer: %v", err)
	}
	return nil
}
