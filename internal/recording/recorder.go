// internal/recording/recorder.go
// Canvas recording: fixed-rate JPEG sampling of the output sink
package recording

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// DefaultFPS is the sampling rate used when none is configured
const DefaultFPS = 30.0

// Snapshotter hands out a copy of the most recently displayed frame
type Snapshotter interface {
	Snapshot() (gocv.Mat, bool)
}

// Recorder samples a Snapshotter at its own rate while recording. Each
// sample becomes one JPEG chunk; Stop joins the chunks into a Blob.
type Recorder struct {
	source Snapshotter
	fps    float64
	logger logrus.FieldLogger

	mu      sync.Mutex
	chunks  [][]byte
	width   int
	height  int
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRecorder(source Snapshotter, fps float64, logger logrus.FieldLogger) *Recorder {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Recorder{source: source, fps: fps, logger: logger}
}

// Start discards any previous chunks and begins sampling
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return errors.New("recording already in progress")
	}

	r.chunks = nil
	r.width, r.height = 0, 0
	r.started = time.Now()

	sampleCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(sampleCtx, r.done)

	r.logger.WithField("fps", r.fps).Info("RECORDER: Recording started")
	return nil
}

// Recording reports whether the sampler is active
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Stop ends sampling and returns everything captured since Start
func (r *Recorder) Stop() (*Blob, error) {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return nil, errors.New("not recording")
	}
	cancel()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = nil
	r.done = nil

	blob := newBlob(r.chunks, r.fps, r.width, r.height)
	r.chunks = nil

	r.logger.WithFields(logrus.Fields{
		"id":       blob.ID.String(),
		"chunks":   blob.Chunks(),
		"bytes":    len(blob.Data),
		"duration": time.Since(r.started),
	}).Info("RECORDER: Recording stopped")
	return blob, nil
}

func (r *Recorder) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / r.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sample(); err != nil {
				r.logger.WithError(err).Warn("RECORDER: Dropped sample")
			}
		}
	}
}

// sample encodes the current snapshot; nothing is appended before the
// first frame is drawn
func (r *Recorder) sample() error {
	mat, ok := r.source.Snapshot()
	if !ok {
		mat.Close()
		return nil
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return errors.Wrap(err, "jpeg encode")
	}
	defer buf.Close()
	chunk := append([]byte(nil), buf.GetBytes()...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.width == 0 {
		r.width, r.height = mat.Cols(), mat.Rows()
	}
	r.chunks = append(r.chunks, chunk)
	return nil
}

func newBlob(chunks [][]byte, fps float64, width, height int) *Blob {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	offsets := make([]int, 0, len(chunks)+1)
	for _, c := range chunks {
		offsets = append(offsets, len(data))
		data = append(data, c...)
	}
	offsets = append(offsets, len(data))

	return &Blob{
		ID:        uuid.New(),
		Data:      data,
		FPS:       fps,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now(),
		offsets:   offsets,
	}
}
