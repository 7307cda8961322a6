package recording

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Blob is a finished recording: the JPEG chunks back to back, which is a
// plain MJPEG stream
type Blob struct {
	ID        uuid.UUID
	Data      []byte
	FPS       float64
	Width     int
	Height    int
	CreatedAt time.Time

	// offsets[i] is where chunk i starts; the last entry is len(Data)
	offsets []int
}

// Chunks is the number of samples in the blob
func (b *Blob) Chunks() int {
	if len(b.offsets) == 0 {
		return 0
	}
	return len(b.offsets) - 1
}

// Chunk returns sample i as JPEG bytes
func (b *Blob) Chunk(i int) []byte {
	return b.Data[b.offsets[i]:b.offsets[i+1]]
}

// Duration is the playback length at the sampling rate
func (b *Blob) Duration() time.Duration {
	if b.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(b.Chunks()) / b.FPS * float64(time.Second))
}

// FileName suggests a name for the blob with the given extension
func (b *Blob) FileName(ext string) string {
	return fmt.Sprintf("recording-%s%s", b.ID.String(), ext)
}

// Save writes the blob to path. A .mjpeg path gets the raw stream; any
// other extension is encoded with codec through the video writer.
func (b *Blob) Save(path, codec string) error {
	if b.Chunks() == 0 {
		return errors.New("recording is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating recording directory")
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".mjpeg") {
		return errors.Wrap(os.WriteFile(path, b.Data, 0o644), "writing mjpeg stream")
	}

	writer, err := gocv.VideoWriterFile(path, codec, b.FPS, b.Width, b.Height, true)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer writer.Close()
	if !writer.IsOpened() {
		return errors.Wrapf(ErrUnsupported, "codec %s for %s", codec, path)
	}

	for i := 0; i < b.Chunks(); i++ {
		if err := b.writeChunk(writer, i); err != nil {
			return err
		}
	}
	return nil
}

func (b *Blob) writeChunk(writer *gocv.VideoWriter, i int) error {
	mat, err := gocv.IMDecode(b.Chunk(i), gocv.IMReadColor)
	if err != nil {
		return errors.Wrapf(err, "decoding chunk %d", i)
	}
	defer mat.Close()
	if mat.Empty() {
		return fmt.Errorf("chunk %d is not a valid image", i)
	}

	if mat.Cols() != b.Width || mat.Rows() != b.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(mat, &resized, image.Pt(b.Width, b.Height), 0, 0, gocv.InterpolationLinear); err != nil {
			return errors.Wrapf(err, "resizing chunk %d", i)
		}
		return errors.Wrapf(writer.Write(resized), "writing chunk %d", i)
	}
	return errors.Wrapf(writer.Write(mat), "writing chunk %d", i)
}
