package recording

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

type fixedSnapshot struct {
	mu  sync.Mutex
	mat gocv.Mat
	has bool
}

func (f *fixedSnapshot) set(mat gocv.Mat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.has {
		f.mat.Close()
	}
	f.mat = mat
	f.has = true
}

func (f *fixedSnapshot) Snapshot() (gocv.Mat, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has {
		return gocv.NewMat(), false
	}
	return f.mat.Clone(), true
}

func solid(rows, cols int, v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
}

func newTestRecorder(src Snapshotter) *Recorder {
	logger, _ := test.NewNullLogger()
	return NewRecorder(src, 200, logger)
}

func TestSampleWaitsForFirstFrame(t *testing.T) {
	src := &fixedSnapshot{}
	r := newTestRecorder(src)

	require.NoError(t, r.sample())
	assert.Empty(t, r.chunks)

	src.set(solid(8, 12, 100))
	require.NoError(t, r.sample())
	require.NoError(t, r.sample())
	require.Len(t, r.chunks, 2)
	assert.Equal(t, 12, r.width)
	assert.Equal(t, 8, r.height)
	// every chunk is a JPEG
	assert.True(t, bytes.HasPrefix(r.chunks[0], []byte{0xFF, 0xD8}))
}

func TestRecorderStartStop(t *testing.T) {
	src := &fixedSnapshot{}
	src.set(solid(8, 8, 50))
	r := newTestRecorder(src)

	_, err := r.Stop()
	assert.Error(t, err, "stop without start")

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Recording())
	assert.Error(t, r.Start(context.Background()), "already recording")

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.chunks) >= 3
	}, 2*time.Second, time.Millisecond)

	blob, err := r.Stop()
	require.NoError(t, err)
	assert.False(t, r.Recording())
	assert.GreaterOrEqual(t, blob.Chunks(), 3)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", blob.ID.String())
	assert.Equal(t, 8, blob.Width)
	assert.Equal(t, 200.0, blob.FPS)

	total := 0
	for i := 0; i < blob.Chunks(); i++ {
		chunk := blob.Chunk(i)
		assert.True(t, bytes.HasPrefix(chunk, []byte{0xFF, 0xD8}))
		total += len(chunk)
	}
	assert.Equal(t, len(blob.Data), total)

	// a new recording does not touch the finished blob
	firstChunks, firstSize := blob.Chunks(), len(blob.Data)
	require.NoError(t, r.Start(context.Background()))
	second, err := r.Stop()
	require.NoError(t, err)
	assert.NotEqual(t, blob.ID, second.ID)
	assert.Equal(t, firstChunks, blob.Chunks())
	assert.Equal(t, firstSize, len(blob.Data))
}

func TestBlobSaveMJPEG(t *testing.T) {
	blob := newBlob([][]byte{{0xFF, 0xD8, 1}, {0xFF, 0xD8, 2, 3}}, 30, 4, 4)
	assert.Equal(t, 2, blob.Chunks())
	assert.Equal(t, []byte{0xFF, 0xD8, 2, 3}, blob.Chunk(1))
	assert.InDelta(t, float64(time.Second)/15, float64(blob.Duration()), float64(time.Millisecond))
	assert.Contains(t, blob.FileName(".avi"), blob.ID.String())

	path := filepath.Join(t.TempDir(), "out", "clip.mjpeg")
	require.NoError(t, blob.Save(path, "MJPG"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, blob.Data, data)

	empty := newBlob(nil, 30, 0, 0)
	assert.Error(t, empty.Save(path, "MJPG"))
}

func TestBlobSaveVideo(t *testing.T) {
	dir := t.TempDir()
	if err := Probe(dir, "MJPG"); err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}

	src := &fixedSnapshot{}
	r := newTestRecorder(src)
	src.set(solid(16, 16, 80))
	require.NoError(t, r.sample())
	src.set(solid(16, 16, 160))
	require.NoError(t, r.sample())

	r.mu.Lock()
	blob := newBlob(r.chunks, r.fps, r.width, r.height)
	r.mu.Unlock()

	path := filepath.Join(dir, blob.FileName(".avi"))
	require.NoError(t, blob.Save(path, "MJPG"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	err := Probe(dir, "MJPG")
	if err != nil {
		assert.True(t, errors.Is(err, core.ErrRecordingUnsupported))
	}

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "probe cleans up after itself")

	err = Probe(dir, "????")
	if err != nil {
		assert.True(t, errors.Is(err, ErrUnsupported))
	}
}
