package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
)

type fakeSource struct {
	mu      sync.Mutex
	frames  int
	next    int
	fps     float64
	playErr error
	readErr error
	failAt  int
}

func (s *fakeSource) Play() error { return s.playErr }

func (s *fakeSource) FPS() float64 { return s.fps }

func (s *fakeSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil && s.next == s.failAt {
		return Frame{}, s.readErr
	}
	if s.next >= s.frames {
		return Frame{}, io.EOF
	}
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(s.next), 0, 0, 0), 2, 2, gocv.MatTypeCV8UC3)
	frame, err := NewFrame(mat, s.next, 0)
	s.next++
	return frame, err
}

type fakePipeline struct {
	mu       sync.Mutex
	indices  []int
	inFlight int32
	maxSeen  int32
	failAt   int
	failErr  error
	panicAt  int
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{failAt: -1, panicAt: -1}
}

func (p *fakePipeline) Name() string { return "fake" }

func (p *fakePipeline) Process(frame Frame, controls config.Controls) (gocv.Mat, error) {
	n := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	for {
		max := atomic.LoadInt32(&p.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&p.maxSeen, max, n) {
			break
		}
	}

	if frame.Index == p.panicAt {
		panic("stage exploded")
	}
	if frame.Index == p.failAt {
		return gocv.NewMat(), p.failErr
	}

	p.mu.Lock()
	p.indices = append(p.indices, frame.Index)
	p.mu.Unlock()
	return frame.Mat.Clone(), nil
}

func (p *fakePipeline) Reset() {}

func (p *fakePipeline) Close() {}

func (p *fakePipeline) processed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.indices...)
}

type statusLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *statusLog) report(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *statusLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func (l *statusLog) last() string {
	lines := l.all()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

type countingSink struct {
	puts int64
	err  error
}

func (s *countingSink) Put(mat gocv.Mat) error {
	if s.err != nil {
		return s.err
	}
	atomic.AddInt64(&s.puts, 1)
	return nil
}

func newTestScheduler(src Source, p Pipeline, sink Sink, controls config.Controls, mode ScheduleMode) (*Scheduler, *statusLog) {
	logger, _ := test.NewNullLogger()
	status := &statusLog{}
	s := NewScheduler(src, p, sink, config.NewControlState(controls), SchedulerOptions{
		Mode:            mode,
		RefreshInterval: 2 * time.Millisecond,
		Status:          status.report,
		Logger:          logger,
	})
	return s, status
}

func qualityControls() config.Controls {
	c := config.DefaultControls()
	c.Resolution = config.ResolutionQuality
	return c
}

func TestStopBeforeStart(t *testing.T) {
	s, status := newTestScheduler(&fakeSource{frames: 3}, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleUnpaced)

	assert.NotPanics(t, s.Stop)
	assert.NotPanics(t, s.Stop)
	assert.False(t, s.Running())
	assert.Empty(t, status.all())
	s.Wait()
}

func TestStartPlaybackBlocked(t *testing.T) {
	src := &fakeSource{frames: 3, playErr: fmt.Errorf("autoplay denied")}
	p := newFakePipeline()
	s, status := newTestScheduler(src, p, &countingSink{}, qualityControls(), ScheduleUnpaced)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlaybackBlocked))
	assert.Equal(t, StatusPlaybackPrompt, status.last())
	assert.False(t, s.Running())
	assert.Empty(t, p.processed())

	// the user retries once playback is allowed
	src.playErr = nil
	require.NoError(t, s.Start(context.Background()))
	s.Wait()
	assert.Equal(t, []int{0, 1, 2}, p.processed())
}

func TestRunsSequentiallyToEnd(t *testing.T) {
	p := newFakePipeline()
	sink := &countingSink{}
	s, status := newTestScheduler(&fakeSource{frames: 5}, p, sink, qualityControls(), ScheduleUnpaced)

	require.NoError(t, s.Start(context.Background()))
	s.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, p.processed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.maxSeen), "at most one frame in flight")
	assert.Equal(t, int64(5), atomic.LoadInt64(&sink.puts))
	assert.Contains(t, status.all(), StatusRunning)
	assert.Equal(t, StatusFinished, status.last())

	stats := s.Stats()
	assert.Equal(t, uint64(5), stats.Processed)
	assert.Equal(t, uint64(0), stats.Skipped)
	assert.Equal(t, 5, stats.Timing.Samples)
	assert.False(t, s.Running())
}

func TestFastModeSkipsEveryOtherFrame(t *testing.T) {
	p := newFakePipeline()
	controls := config.DefaultControls()
	controls.Resolution = config.ResolutionFast
	s, _ := newTestScheduler(&fakeSource{frames: 6}, p, &countingSink{}, controls, ScheduleUnpaced)

	require.NoError(t, s.Start(context.Background()))
	s.Wait()

	assert.Equal(t, []int{0, 2, 4}, p.processed(), "first frame is never skipped")
	assert.Equal(t, uint64(3), s.Stats().Skipped)
}

func TestPipelineErrorStopsLoop(t *testing.T) {
	p := newFakePipeline()
	p.failAt = 2
	p.failErr = fmt.Errorf("boom")
	s, status := newTestScheduler(&fakeSource{frames: 5}, p, &countingSink{}, qualityControls(), ScheduleUnpaced)

	require.NoError(t, s.Start(context.Background()))
	s.Wait()

	assert.Equal(t, []int{0, 1}, p.processed())
	assert.Equal(t, "Processing error: boom", status.last())
	assert.Equal(t, uint64(1), s.Stats().Failed)
	assert.False(t, s.Running())
}

func TestPanicIsRecovered(t *testing.T) {
	p := newFakePipeline()
	p.panicAt = 1
	s, status := newTestScheduler(&fakeSource{frames: 3}, p, &countingSink{}, qualityControls(), ScheduleUnpaced)

	require.NoError(t, s.Start(context.Background()))
	s.Wait()

	assert.Equal(t, []int{0}, p.processed())
	assert.True(t, strings.HasPrefix(status.last(), "Processing error: panic: stage exploded"), status.last())
}

func TestReadAndSinkErrors(t *testing.T) {
	src := &fakeSource{frames: 5, readErr: fmt.Errorf("decode failed"), failAt: 1}
	s, status := newTestScheduler(src, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleUnpaced)
	require.NoError(t, s.Start(context.Background()))
	s.Wait()
	assert.Equal(t, "Processing error: reading frame: decode failed", status.last())

	sink := &countingSink{err: fmt.Errorf("canvas gone")}
	s, status = newTestScheduler(&fakeSource{frames: 5}, newFakePipeline(), sink, qualityControls(), ScheduleUnpaced)
	require.NoError(t, s.Start(context.Background()))
	s.Wait()
	assert.Equal(t, "Processing error: output sink: canvas gone", status.last())
}

func TestStopIsIdempotentAndRestartable(t *testing.T) {
	p := newFakePipeline()
	s, status := newTestScheduler(&fakeSource{frames: 100000}, p, &countingSink{}, qualityControls(), ScheduleDisplayRefresh)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "start while running is a no-op")
	require.Eventually(t, func() bool { return len(p.processed()) >= 2 }, 2*time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, StatusStopped, status.last())
	count := len(p.processed())

	s.Stop()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, count, len(p.processed()), "no ticks after Stop")
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.maxSeen))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return len(p.processed()) > count }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())
}

func TestContextCancelEndsLoop(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{frames: 100000}, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleDisplayRefresh)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()
	s.Wait()
	assert.False(t, s.Running())
}

func TestProbeSchedule(t *testing.T) {
	assert.Equal(t, ScheduleVideoFrame, ProbeSchedule(&fakeSource{fps: 25}, true))
	assert.Equal(t, ScheduleDisplayRefresh, ProbeSchedule(&fakeSource{}, true))
	assert.Equal(t, ScheduleUnpaced, ProbeSchedule(&fakeSource{fps: 25}, false))
	assert.Equal(t, "video-frame", ScheduleVideoFrame.String())
	assert.Equal(t, "unknown", ScheduleMode(42).String())
}

func TestSchedulerInterval(t *testing.T) {
	s, _ := newTestScheduler(&fakeSource{fps: 50}, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleVideoFrame)
	assert.Equal(t, 20*time.Millisecond, s.interval())

	s, _ = newTestScheduler(&fakeSource{}, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleVideoFrame)
	assert.Equal(t, 2*time.Millisecond, s.interval(), "unknown rate falls back to refresh")

	s, _ = newTestScheduler(&fakeSource{}, newFakePipeline(), &countingSink{}, qualityControls(), ScheduleUnpaced)
	assert.Equal(t, time.Duration(0), s.interval())
}
