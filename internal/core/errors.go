// Error kinds surfaced through the status channel
package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInitFailed means a rendering or vision capability is unavailable
	ErrInitFailed = errors.New("initialization failed")
	// ErrPlaybackBlocked means the source refused to start delivering frames
	ErrPlaybackBlocked = errors.New("playback could not start")
	// ErrFrameFailed wraps any failure inside a single tick
	ErrFrameFailed = errors.New("frame processing failed")
	// ErrRecordingUnsupported means the writer backend cannot encode
	ErrRecordingUnsupported = errors.New("recording unsupported")
)

// FrameError is a failure raised while processing one frame
type FrameError struct {
	Index int
	Err   error
}

// NewFrameError wraps err as the failure of frame index
func NewFrameError(index int, err error) error {
	return &FrameError{Index: index, Err: err}
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Is makes every FrameError match ErrFrameFailed
func (e *FrameError) Is(target error) bool { return target == ErrFrameFailed }

// StatusFunc receives single human-readable status lines
type StatusFunc func(status string)

// Status messages shown to the user
const (
	StatusReady          = "Ready. Click Start."
	StatusRunning        = "Processing..."
	StatusStopped        = "Stopped."
	StatusFinished       = "Finished."
	StatusPlaybackPrompt = "Press Play on the source video, then Start."
)

// StatusForError renders err as the text shown in the status field
func StatusForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPlaybackBlocked):
		return StatusPlaybackPrompt
	case errors.Is(err, ErrInitFailed):
		return "Not available on this system: " + err.Error()
	case errors.Is(err, ErrRecordingUnsupported):
		return "Recording not supported: " + err.Error()
	case errors.Is(err, ErrFrameFailed):
		var fe *FrameError
		if errors.As(err, &fe) {
			return "Processing error: " + fe.Err.Error()
		}
		return "Processing error: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
