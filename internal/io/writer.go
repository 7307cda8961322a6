// Video file output for headless rendering
package io

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// FileSink writes committed frames to a video file. The writer is opened
// on the first frame, when the output size is known.
type FileSink struct {
	path   string
	codec  string
	fps    float64
	logger logrus.FieldLogger

	mu     sync.Mutex
	writer *gocv.VideoWriter
	width  int
	height int
	frames int
}

func NewFileSink(path, codec string, fps float64, logger logrus.FieldLogger) *FileSink {
	if fps <= 0 {
		fps = 30
	}
	return &FileSink{path: path, codec: codec, fps: fps, logger: logger}
}

// Put appends mat to the file. Every frame must have the size of the first.
func (s *FileSink) Put(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("cannot write empty frame")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		writer, err := gocv.VideoWriterFile(s.path, s.codec, s.fps, mat.Cols(), mat.Rows(), true)
		if err != nil {
			return errors.Wrapf(err, "failed to open writer %s", s.path)
		}
		if !writer.IsOpened() {
			writer.Close()
			return fmt.Errorf("failed to open writer %s with codec %s", s.path, s.codec)
		}
		s.writer = writer
		s.width, s.height = mat.Cols(), mat.Rows()
		s.logger.WithFields(logrus.Fields{
			"filepath": s.path,
			"codec":    s.codec,
			"fps":      s.fps,
			"width":    s.width,
			"height":   s.height,
		}).Info("WRITER: Output opened")
	}

	if mat.Cols() != s.width || mat.Rows() != s.height {
		return fmt.Errorf("frame size %dx%d does not match output %dx%d", mat.Cols(), mat.Rows(), s.width, s.height)
	}

	if err := s.writer.Write(mat); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}
	s.frames++
	return nil
}

// Frames returns how many frames were written
func (s *FileSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.writer = nil
	s.logger.WithFields(logrus.Fields{
		"filepath": s.path,
		"frames":   s.frames,
	}).Info("WRITER: Output closed")
	return err
}
