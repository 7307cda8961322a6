// Frame source and sink contracts used by the scheduler
package core

import (
	"context"

	"gocv.io/x/gocv"
)

// Source delivers decoded frames in presentation order
type Source interface {
	// Play readies the source. An error means playback was refused and
	// the user has to retry explicitly.
	Play() error
	// Next blocks until the next frame is available. It returns io.EOF
	// once the source is exhausted.
	Next(ctx context.Context) (Frame, error)
	// FPS is the presentation rate, or 0 when unknown
	FPS() float64
}

// Sink commits one output picture. Put must not retain mat beyond the call.
type Sink interface {
	Put(mat gocv.Mat) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(mat gocv.Mat) error

func (f SinkFunc) Put(mat gocv.Mat) error { return f(mat) }

// ScheduleMode is how the scheduler waits between ticks
type ScheduleMode int

const (
	// ScheduleVideoFrame ticks once per presented source frame
	ScheduleVideoFrame ScheduleMode = iota
	// ScheduleDisplayRefresh ticks at the display refresh fallback rate
	ScheduleDisplayRefresh
	// ScheduleUnpaced ticks as soon as the previous output is committed
	ScheduleUnpaced
)

func (m ScheduleMode) String() string {
	switch m {
	case ScheduleVideoFrame:
		return "video-frame"
	case ScheduleDisplayRefresh:
		return "display-refresh"
	case ScheduleUnpaced:
		return "unpaced"
	default:
		return "unknown"
	}
}

// ProbeSchedule picks the schedule mode once, before the loop starts.
// Offline rendering is never paced.
func ProbeSchedule(src Source, realtime bool) ScheduleMode {
	if !realtime {
		return ScheduleUnpaced
	}
	if src.FPS() > 0 {
		return ScheduleVideoFrame
	}
	return ScheduleDisplayRefresh
}
