package algorithms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/metrics"
)

func solidMat(rows, cols int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// stripeMat alternates two gray levels column by column
func stripeMat(rows, cols int, low, high uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := low
			if x%2 == 1 {
				v = high
			}
			for c := 0; c < 3; c++ {
				mat.SetUCharAt(y, x*3+c, v)
			}
		}
	}
	return mat
}

func meanAbsDiff(t *testing.T, a, b gocv.Mat) float64 {
	t.Helper()
	ab, bb := a.ToBytes(), b.ToBytes()
	require.Equal(t, len(ab), len(bb))
	sum := 0.0
	for i := range ab {
		sum += math.Abs(float64(ab[i]) - float64(bb[i]))
	}
	return sum / float64(len(ab))
}

func TestRegistryContainsAllStages(t *testing.T) {
	for _, name := range []string{
		StageContrast, StageWhiteBalance, StageRecolor,
		StageDenoise, StageSharpen, StageSaturation, StageUpscale,
	} {
		algorithm, ok := Get(name)
		require.True(t, ok, name)
		assert.True(t, IsValidAlgorithm(name))
		assert.NotEmpty(t, algorithm.GetName())
		assert.NotEmpty(t, algorithm.GetDescription())
		assert.NoError(t, algorithm.Validate(algorithm.GetDefaultParams()), name)
	}

	total := 0
	for _, names := range GetAlgorithmsByCategory() {
		total += len(names)
	}
	assert.Equal(t, len(GetAllAlgorithms()), total)

	_, err := Apply("missing", gocv.NewMat(), nil)
	assert.Error(t, err)
	assert.Error(t, ValidateParameters("missing", nil))
}

func TestStageValidation(t *testing.T) {
	tests := []struct {
		stage  string
		params map[string]interface{}
		valid  bool
	}{
		{StageRecolor, map[string]interface{}{"warmth": 100.0}, true},
		{StageRecolor, map[string]interface{}{"warmth": 101.0}, false},
		{StageDenoise, map[string]interface{}{"strength": -1.0}, false},
		{StageSharpen, map[string]interface{}{"amount": 40}, true},
		{StageSharpen, map[string]interface{}{"amount": "lots"}, false},
		{StageSaturation, map[string]interface{}{"amount": 150.0}, false},
		{StageUpscale, map[string]interface{}{"factor": 2.0}, true},
		{StageUpscale, map[string]interface{}{"factor": 0.0}, false},
		{StageUpscale, map[string]interface{}{"factor": 5.0}, false},
		{StageContrast, map[string]interface{}{"clip_limit": 0.0}, false},
	}
	for _, tt := range tests {
		err := ValidateParameters(tt.stage, tt.params)
		if tt.valid {
			assert.NoError(t, err, "%s %v", tt.stage, tt.params)
		} else {
			assert.Error(t, err, "%s %v", tt.stage, tt.params)
		}
	}
}

func TestStagesRejectEmptyInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	for name := range GetAllAlgorithms() {
		out, err := Apply(name, empty, nil)
		assert.Error(t, err, name)
		out.Close()
	}
}

func TestContrastKeepsFormat(t *testing.T) {
	input := stripeMat(16, 16, 90, 110)
	defer input.Close()

	out, err := NewContrast().Apply(input, NewContrast().GetDefaultParams())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, input.Rows(), out.Rows())
	assert.Equal(t, input.Cols(), out.Cols())
	assert.Equal(t, gocv.MatTypeCV8UC3, out.Type())
	// equalization stretches the narrow input range
	assert.Greater(t, meanAbsDiff(t, input, out), 0.0)
}

func TestChannelGains(t *testing.T) {
	mat := solidMat(2, 2, 100, 50, 0)
	defer mat.Close()

	gains := ChannelGains(mat)
	assert.InDelta(t, 0.5, gains[0], 1e-9)
	assert.InDelta(t, 1.0, gains[1], 1e-9)
	assert.Equal(t, 1.0, gains[2], "zero mean channel keeps gain 1")
}

func TestWhiteBalanceEqualizesMeans(t *testing.T) {
	input := solidMat(4, 4, 100, 50, 150)
	defer input.Close()

	out, err := NewWhiteBalance().Apply(input, nil)
	require.NoError(t, err)
	defer out.Close()

	mean := out.Mean()
	assert.InDelta(t, 100, mean.Val1, 1)
	assert.InDelta(t, 100, mean.Val2, 1)
	assert.InDelta(t, 100, mean.Val3, 1)
}

func TestIsGrayscale(t *testing.T) {
	gray := solidMat(4, 4, 128, 128, 128)
	defer gray.Close()
	red := solidMat(4, 4, 0, 0, 255)
	defer red.Close()

	isGray, err := IsGrayscale(gray)
	require.NoError(t, err)
	assert.True(t, isGray)

	isGray, err = IsGrayscale(red)
	require.NoError(t, err)
	assert.False(t, isGray)
}

func TestChromaShift(t *testing.T) {
	a, b := ChromaShift(50)
	assert.InDelta(t, 10, a, 1e-9)
	assert.InDelta(t, 18, b, 1e-9)

	a, b = ChromaShift(0)
	assert.InDelta(t, 4, a, 1e-9)
	assert.InDelta(t, 7.2, b, 1e-9)

	a, b = ChromaShift(-100)
	assert.Equal(t, 0.0, a, "shift is never negative")
	assert.Equal(t, 0.0, b)
}

func TestRecolorWarmsGray(t *testing.T) {
	input := solidMat(2, 2, 128, 128, 128)
	defer input.Close()

	out, err := NewRecolor().Apply(input, map[string]interface{}{"warmth": 50.0})
	require.NoError(t, err)
	defer out.Close()

	b := out.GetUCharAt(0, 0)
	r := out.GetUCharAt(0, 2)
	assert.Greater(t, r, b)

	sat, err := metrics.MeanSaturation(out)
	require.NoError(t, err)
	assert.Greater(t, sat, 0.0)
}

func TestDenoise(t *testing.T) {
	input := stripeMat(8, 8, 100, 156)
	defer input.Close()

	same, err := NewDenoise().Apply(input, map[string]interface{}{"strength": 0.0})
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, input.ToBytes(), same.ToBytes())

	c, s := DenoiseSigmas(40)
	assert.InDelta(t, 60, c, 1e-9)
	assert.InDelta(t, 6, s, 1e-9)

	smoothed, err := NewDenoise().Apply(input, map[string]interface{}{"strength": 60.0})
	require.NoError(t, err)
	defer smoothed.Close()
	assert.Equal(t, input.Rows(), smoothed.Rows())
	assert.Equal(t, input.Cols(), smoothed.Cols())
}

func TestSharpenMonotonic(t *testing.T) {
	input := stripeMat(8, 8, 100, 156)
	defer input.Close()

	same, err := NewSharpen().Apply(input, map[string]interface{}{"amount": 0.0})
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, input.ToBytes(), same.ToBytes())

	prev := 0.0
	for _, amount := range []float64{20, 50, 100} {
		out, err := NewSharpen().Apply(input, map[string]interface{}{"amount": amount})
		require.NoError(t, err)
		diff := meanAbsDiff(t, input, out)
		out.Close()
		assert.Greater(t, diff, prev, "amount %v", amount)
		prev = diff
	}

	sigma, weight := UnsharpParams(100)
	assert.InDelta(t, 3.0, sigma, 1e-9)
	assert.InDelta(t, 1.5, weight, 1e-9)
}

func TestSaturationBoost(t *testing.T) {
	input := solidMat(4, 4, 100, 120, 140)
	defer input.Close()

	same, err := NewSaturationBoost().Apply(input, map[string]interface{}{"amount": 0.0})
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, input.ToBytes(), same.ToBytes())

	out, err := NewSaturationBoost().Apply(input, map[string]interface{}{"amount": 50.0})
	require.NoError(t, err)
	defer out.Close()

	before, err := metrics.MeanSaturation(input)
	require.NoError(t, err)
	after, err := metrics.MeanSaturation(out)
	require.NoError(t, err)
	assert.InDelta(t, before*1.5, after, 3)

	full := solidMat(4, 4, 0, 0, 255)
	defer full.Close()
	clamped, err := NewSaturationBoost().Apply(full, map[string]interface{}{"amount": 100.0})
	require.NoError(t, err)
	defer clamped.Close()
	assert.Equal(t, full.ToBytes(), clamped.ToBytes(), "saturation clamps at 255")
}

func TestUpscale(t *testing.T) {
	input := stripeMat(4, 6, 10, 200)
	defer input.Close()

	same, err := NewUpscale().Apply(input, map[string]interface{}{"factor": 1.0})
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, input.ToBytes(), same.ToBytes())

	out, err := NewUpscale().Apply(input, map[string]interface{}{"factor": 2.0})
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 8, out.Rows())
	assert.Equal(t, 12, out.Cols())

	size := ScaledSize(1280, 720, 1.5)
	assert.Equal(t, 1920, size.X)
	assert.Equal(t, 1080, size.Y)
	size = ScaledSize(1, 1, 0.1)
	assert.Equal(t, 1, size.X)
	assert.Equal(t, 1, size.Y)
}
