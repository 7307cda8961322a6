// Frame source loading by file type
package io

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

var (
	imageFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}
	videoFormats = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".mjpeg"}
)

// FrameSource is a core.Source backed by a file
type FrameSource interface {
	core.Source
	// Size is the decoded frame size
	Size() image.Point
	// FrameCount is the number of frames, or 0 when unknown
	FrameCount() int
	Close() error
}

// Open picks a video or still-image source from the file extension
func Open(path string, logger logrus.FieldLogger) (FrameSource, error) {
	switch {
	case IsSupportedVideo(path):
		return OpenVideo(path, logger)
	case IsSupportedImage(path):
		return OpenImage(path, logger)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// IsSupportedImage reports whether path has a still-image extension
func IsSupportedImage(path string) bool {
	return hasExtension(path, imageFormats)
}

// IsSupportedVideo reports whether path has a video container extension
func IsSupportedVideo(path string) bool {
	return hasExtension(path, videoFormats)
}

// SupportedExtensions lists every extension Open accepts
func SupportedExtensions() []string {
	out := make([]string, 0, len(imageFormats)+len(videoFormats))
	out = append(out, videoFormats...)
	return append(out, imageFormats...)
}

func hasExtension(path string, formats []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range formats {
		if ext == format {
			return true
		}
	}
	return false
}

// LoadImage reads a still image as a BGR Mat
func LoadImage(path string, logger logrus.FieldLogger) (gocv.Mat, error) {
	logger.WithField("filepath", path).Debug("LOADER: Loading image")

	if !IsSupportedImage(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("LOADER: Image loaded successfully")

	return mat, nil
}

// SaveImage writes mat to path; the format follows the extension
func SaveImage(mat gocv.Mat, path string, logger logrus.FieldLogger) error {
	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !IsSupportedImage(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("LOADER: Image saved successfully")

	return nil
}
