package shader

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return newPipeline(&Program{Source: recolorShaderWGSL}, logger)
}

func solidFrame(t *testing.T, rows, cols int, b, g, r float64) core.Frame {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
	frame, err := core.NewFrame(mat, 0, 0)
	require.NoError(t, err)
	return frame
}

func pixelHSL(mat gocv.Mat, row, col int) HSL {
	b := float64(mat.GetUCharAt(row, col*3)) / 255
	g := float64(mat.GetUCharAt(row, col*3+1)) / 255
	r := float64(mat.GetUCharAt(row, col*3+2)) / 255
	return RGBToHSL(RGB{r, g, b})
}

func TestPipelineRecolorsAchromaticFrame(t *testing.T) {
	p := testPipeline(t)
	frame := solidFrame(t, 2, 2, 128, 128, 128)
	defer frame.Close()

	controls := config.Controls{
		Warmth: 50, Saturation: 50, Sharpness: 0, Denoise: 0,
		Upscale: 1, Resolution: config.ResolutionQuality,
	}

	out, err := p.Process(frame, controls)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 2, out.Cols())
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			hsl := pixelHSL(out, row, col)
			assert.Greater(t, hsl.S, 0.0)
			assert.GreaterOrEqual(t, hsl.H, HueWarm)
			assert.LessOrEqual(t, hsl.H, HueCool)
		}
	}
}

func TestPipelineKeepsChromaticFrame(t *testing.T) {
	p := testPipeline(t)
	frame := solidFrame(t, 2, 2, 40, 80, 200)
	defer frame.Close()

	controls := config.DefaultControls()
	controls.Saturation = 0
	controls.Sharpness = 0

	out, err := p.Process(frame, controls)
	require.NoError(t, err)
	defer out.Close()

	// only gamma applies to an already chromatic pixel with no boost
	want := Gamma(RGB{200.0 / 255, 80.0 / 255, 40.0 / 255})
	assert.InDelta(t, math.Round(want.B*255), float64(out.GetUCharAt(0, 0)), 1)
	assert.InDelta(t, math.Round(want.G*255), float64(out.GetUCharAt(0, 1)), 1)
	assert.InDelta(t, math.Round(want.R*255), float64(out.GetUCharAt(0, 2)), 1)
}

func TestPipelineCapsResolution(t *testing.T) {
	p := testPipeline(t)
	frame := solidFrame(t, 1080, 1920, 90, 90, 90)
	defer frame.Close()

	controls := config.DefaultControls()
	controls.Resolution = config.ResolutionFast

	out, err := p.Process(frame, controls)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 720, out.Rows())
	assert.Equal(t, 1280, out.Cols())

	again, err := p.Process(frame, controls)
	require.NoError(t, err)
	again.Close()
	assert.Equal(t, 1, p.uploader.Reallocations())

	controls.Resolution = config.ResolutionQuality
	full, err := p.Process(frame, controls)
	require.NoError(t, err)
	defer full.Close()
	assert.Equal(t, 1080, full.Rows())
	assert.Equal(t, 2, p.uploader.Reallocations())
}

func TestPipelineOutputIsIndependentOfSurface(t *testing.T) {
	p := testPipeline(t)
	gray := solidFrame(t, 2, 2, 128, 128, 128)
	defer gray.Close()
	black := solidFrame(t, 2, 2, 0, 0, 0)
	defer black.Close()

	controls := config.DefaultControls()
	first, err := p.Process(gray, controls)
	require.NoError(t, err)
	defer first.Close()
	snapshot := append([]byte(nil), first.ToBytes()...)

	second, err := p.Process(black, controls)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, snapshot, first.ToBytes(), "earlier output must not change when the surface is reused")
	assert.Equal(t, "gpu", p.Name())
}

func TestRenderSingleWorkerMatchesParallel(t *testing.T) {
	tex := &Texture{Width: 5, Height: 7, Pix: make([]float64, 5*7*3)}
	for i := range tex.Pix {
		tex.Pix[i] = float64(i%17) / 16
	}
	u := Uniforms{Warm: 0.3, Sat: 0.7, Sharp: 0.8}

	a := &Surface{Width: 5, Height: 7, Pix: make([]byte, 5*7*3)}
	b := &Surface{Width: 5, Height: 7, Pix: make([]byte, 5*7*3)}
	Render(tex, a, u, 1)
	Render(tex, b, u, 16)
	assert.Equal(t, a.Pix, b.Pix)
}
