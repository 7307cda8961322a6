package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solid(b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), 4, 4, gocv.MatTypeCV8UC3)
}

func TestPSNR(t *testing.T) {
	a := solid(100, 100, 100)
	defer a.Close()
	b := solid(110, 100, 100)
	defer b.Close()

	psnr := NewPSNR()

	same, err := psnr.Calculate(a, a)
	require.NoError(t, err)
	assert.True(t, math.IsInf(same, 1))

	got, err := psnr.Calculate(a, b)
	require.NoError(t, err)
	// one channel off by 10: mse = 100/3
	assert.InDelta(t, 20*math.Log10(255/math.Sqrt(100.0/3)), got, 1e-9)

	small := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer small.Close()
	_, err = psnr.Calculate(a, small)
	assert.Error(t, err)
}

func TestMeanSaturation(t *testing.T) {
	gray := solid(128, 128, 128)
	defer gray.Close()
	red := solid(0, 0, 255)
	defer red.Close()

	s, err := MeanSaturation(gray)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	s, err = MeanSaturation(red)
	require.NoError(t, err)
	assert.Equal(t, 255.0, s)

	_, err = MeanSaturation(gocv.NewMat())
	assert.Error(t, err)
}

func TestColorfulness(t *testing.T) {
	gray := solid(90, 90, 90)
	defer gray.Close()
	orange := solid(0, 128, 255)
	defer orange.Close()

	c := NewColorfulness()
	g, err := c.Calculate(gray, gray)
	require.NoError(t, err)
	assert.InDelta(t, 0, g, 1e-9)

	o, err := c.Calculate(gray, orange)
	require.NoError(t, err)
	assert.Greater(t, o, g)
}

func TestEvaluatorCalculateAll(t *testing.T) {
	a := solid(128, 128, 128)
	defer a.Close()

	e := NewEvaluator()
	assert.Equal(t, []string{"colorfulness", "psnr", "saturation_in", "saturation_out"}, e.Names())

	results := e.CalculateAll(a, a)
	assert.Len(t, results, 4)
	assert.Equal(t, 0.0, results["saturation_out"])

	_, err := e.Calculate("ssim", a, a)
	assert.Error(t, err)
}

func TestTickStats(t *testing.T) {
	stats := NewTickStats(3)
	assert.Equal(t, 0, stats.Summary().Samples)

	stats.Observe(10 * time.Millisecond)
	one := stats.Summary()
	assert.Equal(t, 1, one.Samples)
	assert.InDelta(t, 10, one.MeanMS, 1e-9)
	assert.Equal(t, 0.0, one.StdMS)
	assert.InDelta(t, 100, one.FPS, 1e-9)

	stats.Observe(20 * time.Millisecond)
	stats.Observe(30 * time.Millisecond)
	// window of 3 drops the oldest
	stats.Observe(40 * time.Millisecond)

	s := stats.Summary()
	assert.Equal(t, 3, s.Samples)
	assert.InDelta(t, 30, s.MeanMS, 1e-9)
	assert.InDelta(t, 10, s.StdMS, 1e-9)
	assert.InDelta(t, 40, s.MaxMS, 1e-9)
}
