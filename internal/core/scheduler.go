// internal/core/scheduler.go
// Frame scheduler driving one pipeline invocation per presented frame
package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/metrics"
)

// SchedulerOptions configures a Scheduler
type SchedulerOptions struct {
	Mode            ScheduleMode
	RefreshInterval time.Duration
	Status          StatusFunc
	Logger          logrus.FieldLogger
}

// SchedulerStats counts what the loop did since construction
type SchedulerStats struct {
	Processed uint64
	Skipped   uint64
	Failed    uint64
	Timing    metrics.TickSummary
}

// Scheduler runs source -> pipeline -> sink strictly one frame at a time
type Scheduler struct {
	source   Source
	pipeline Pipeline
	sink     Sink
	controls *config.ControlState
	opts     SchedulerOptions

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	processed uint64
	skipped   uint64
	failed    uint64
	timing    *metrics.TickStats
}

func NewScheduler(source Source, pipeline Pipeline, sink Sink, controls *config.ControlState, opts SchedulerOptions) *Scheduler {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Second / 60
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Scheduler{
		source:   source,
		pipeline: pipeline,
		sink:     sink,
		controls: controls,
		opts:     opts,
		timing:   metrics.NewTickStats(120),
	}
}

// Start begins the render loop. It returns ErrPlaybackBlocked without
// starting when the source refuses to play. Calling Start while running
// does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	if err := s.source.Play(); err != nil {
		s.mu.Unlock()
		s.opts.Logger.WithError(err).Warn("SCHEDULER: Source refused to play")
		s.report(StatusPlaybackPrompt)
		return errors.Wrap(ErrPlaybackBlocked, err.Error())
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.opts.Logger.WithFields(logrus.Fields{
		"mode":     s.opts.Mode.String(),
		"pipeline": s.pipeline.Name(),
		"fps":      s.source.FPS(),
	}).Info("SCHEDULER: Starting render loop")
	// status callbacks may query Running, so report without holding mu
	s.report(StatusRunning)

	go s.loop(loopCtx, done)
	return nil
}

// Stop cancels the pending wait and blocks until an in-progress tick has
// completed. It is safe to call at any time, any number of times, but not
// from inside the sink.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.report(StatusStopped)
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns loop counters and tick timing
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Processed: atomic.LoadUint64(&s.processed),
		Skipped:   atomic.LoadUint64(&s.skipped),
		Failed:    atomic.LoadUint64(&s.failed),
		Timing:    s.timing.Summary(),
	}
}

// Wait blocks until the current loop exits, or returns at once if idle
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	running := s.running
	s.mu.Unlock()
	if running && done != nil {
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	var pace <-chan time.Time
	if interval := s.interval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	first := true
	skip := false
	for {
		if !first && pace != nil {
			select {
			case <-ctx.Done():
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return
		}

		frame, err := s.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.opts.Logger.Info("SCHEDULER: Source exhausted")
				s.report(StatusFinished)
				return
			}
			if ctx.Err() != nil {
				return
			}
			index := int(atomic.LoadUint64(&s.processed) + atomic.LoadUint64(&s.skipped))
			s.fail(NewFrameError(index, errors.Wrap(err, "reading frame")))
			return
		}

		controls := s.controls.Snapshot()
		if controls.SkipFrames() && !first {
			skip = !skip
			if skip {
				frame.Close()
				atomic.AddUint64(&s.skipped, 1)
				continue
			}
		}
		first = false

		if err := s.tick(frame, controls); err != nil {
			s.fail(err)
			return
		}
	}
}

// tick processes one frame and commits the result; panics are converted
// into frame errors.
func (s *Scheduler) tick(frame Frame, controls config.Controls) (err error) {
	defer frame.Close()
	defer func() {
		if r := recover(); r != nil {
			err = NewFrameError(frame.Index, fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()
	out, err := s.pipeline.Process(frame, controls)
	if err != nil {
		return NewFrameError(frame.Index, err)
	}
	defer out.Close()

	if err := s.sink.Put(out); err != nil {
		return NewFrameError(frame.Index, errors.Wrap(err, "output sink"))
	}

	elapsed := time.Since(start)
	s.timing.Observe(elapsed)
	atomic.AddUint64(&s.processed, 1)

	s.opts.Logger.WithFields(logrus.Fields{
		"frame":    frame.Index,
		"duration": elapsed,
	}).Debug("SCHEDULER: Frame committed")
	return nil
}

// interval is the wait between ticks, 0 when unpaced. A video-frame
// schedule without a known rate falls back to the refresh interval.
func (s *Scheduler) interval() time.Duration {
	switch s.opts.Mode {
	case ScheduleVideoFrame:
		if fps := s.source.FPS(); fps > 0 {
			return time.Duration(float64(time.Second) / fps)
		}
		return s.opts.RefreshInterval
	case ScheduleDisplayRefresh:
		return s.opts.RefreshInterval
	default:
		return 0
	}
}

func (s *Scheduler) fail(err error) {
	atomic.AddUint64(&s.failed, 1)
	s.opts.Logger.WithError(err).Error("SCHEDULER: Stopping after failure")
	s.report(StatusForError(err))
}

func (s *Scheduler) report(status string) {
	if s.opts.Status != nil {
		s.opts.Status(status)
	}
}
