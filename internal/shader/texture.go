// Texture upload and output surface management
package shader

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// CapSize scales (w, h) down so that h does not exceed maxHeight,
// preserving the aspect ratio. Sizes already within the cap are unchanged.
func CapSize(w, h, maxHeight int) (int, int) {
	if h <= maxHeight || maxHeight <= 0 {
		return w, h
	}
	r := float64(maxHeight) / float64(h)
	cw := int(math.Round(float64(w) * r))
	ch := int(math.Round(float64(h) * r))
	if cw < 1 {
		cw = 1
	}
	return cw, ch
}

// Texture is a frame sampled as normalized RGB. Lookups clamp to the edge.
type Texture struct {
	Width  int
	Height int
	Pix    []float64
}

// At returns the texel at (x, y), clamping coordinates to the texture
func (t *Texture) At(x, y int) RGB {
	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	i := (y*t.Width + x) * 3
	return RGB{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

// Surface is the output target in BGR byte order
type Surface struct {
	Width  int
	Height int
	Pix    []byte
}

// Set writes a color to (x, y), quantized to 8 bits
func (s *Surface) Set(x, y int, c RGB) {
	i := (y*s.Width + x) * 3
	s.Pix[i] = quantize(c.B)
	s.Pix[i+1] = quantize(c.G)
	s.Pix[i+2] = quantize(c.R)
}

func quantize(v float64) uint8 {
	return uint8(clamp01(v)*255.0 + 0.5)
}

// Uploader owns the texture and surface. Both are reused between frames
// and only reallocated when the capped frame size changes.
type Uploader struct {
	texture       Texture
	surface       Surface
	reallocations int
}

func NewUploader() *Uploader {
	return &Uploader{}
}

// Upload copies img into the texture, downscaling it to maxHeight first
func (u *Uploader) Upload(img image.Image, maxHeight int) (*Texture, *Surface, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil, fmt.Errorf("cannot upload empty image")
	}

	w, h := CapSize(bounds.Dx(), bounds.Dy(), maxHeight)
	if w != bounds.Dx() || h != bounds.Dy() {
		img = imaging.Resize(img, w, h, imaging.Linear)
	}

	if u.texture.Width != w || u.texture.Height != h {
		u.texture = Texture{Width: w, Height: h, Pix: make([]float64, w*h*3)}
		u.surface = Surface{Width: w, Height: h, Pix: make([]byte, w*h*3)}
		u.reallocations++
	}

	fillTexture(&u.texture, img)
	return &u.texture, &u.surface, nil
}

// Reallocations counts how often the surface had to be resized
func (u *Uploader) Reallocations() int {
	return u.reallocations
}

func fillTexture(t *Texture, img image.Image) {
	const inv = 1.0 / 255.0
	b := img.Bounds()

	switch src := img.(type) {
	case *image.RGBA:
		fillFromPix(t, src.Pix, src.Stride, inv)
	case *image.NRGBA:
		fillFromPix(t, src.Pix, src.Stride, inv)
	default:
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*t.Width + x) * 3
				t.Pix[i] = float64(r>>8) * inv
				t.Pix[i+1] = float64(g>>8) * inv
				t.Pix[i+2] = float64(bl>>8) * inv
			}
		}
	}
}

// fillFromPix reads 4-byte RGBA rows; frames are opaque so alpha is ignored
func fillFromPix(t *Texture, pix []uint8, stride int, inv float64) {
	for y := 0; y < t.Height; y++ {
		row := pix[y*stride:]
		for x := 0; x < t.Width; x++ {
			i := (y*t.Width + x) * 3
			t.Pix[i] = float64(row[x*4]) * inv
			t.Pix[i+1] = float64(row[x*4+1]) * inv
			t.Pix[i+2] = float64(row[x*4+2]) * inv
		}
	}
}
