// Fragment math of the recolor program, evaluated per output pixel
package shader

import "math"

const (
	// GrayscaleThreshold is the HSL saturation below which a sample is
	// treated as achromatic
	GrayscaleThreshold = 0.12
	// HueCool and HueWarm bound the synthesized hue (about 209 and 22 degrees)
	HueCool = 0.58
	HueWarm = 0.06

	lightnessCurve = 1.05
	warmthBias     = 0.3
	baseSaturation = 0.35
	satSynthesis   = 0.5
	satBoost       = 0.8
	sharpenGain    = 0.6
	gammaExponent  = 1.0 / 1.1
)

// RGB is a linear color with channels in 0..1
type RGB struct {
	R, G, B float64
}

// HSL has hue, saturation and lightness in 0..1
type HSL struct {
	H, S, L float64
}

// Uniforms are the scalar controls, each normalized to 0..1
type Uniforms struct {
	Warm  float64
	Sat   float64
	Sharp float64
}

func (c RGB) add(o RGB) RGB       { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c RGB) sub(o RGB) RGB       { return RGB{c.R - o.R, c.G - o.G, c.B - o.B} }
func (c RGB) scale(k float64) RGB { return RGB{c.R * k, c.G * k, c.B * k} }

func (c RGB) clamp() RGB {
	return RGB{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// RGBToHSL converts a color to hue, saturation, lightness
func RGBToHSL(c RGB) HSL {
	maxc := math.Max(math.Max(c.R, c.G), c.B)
	minc := math.Min(math.Min(c.R, c.G), c.B)
	l := (maxc + minc) * 0.5
	if maxc == minc {
		return HSL{0, 0, l}
	}

	d := maxc - minc
	var s float64
	if l > 0.5 {
		s = d / (2.0 - maxc - minc)
	} else {
		s = d / (maxc + minc)
	}

	var h float64
	switch maxc {
	case c.R:
		h = (c.G - c.B) / d
		if c.G < c.B {
			h += 6.0
		}
	case c.G:
		h = (c.B-c.R)/d + 2.0
	default:
		h = (c.R-c.G)/d + 4.0
	}
	return HSL{h / 6.0, s, l}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6.0*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6.0
	default:
		return p
	}
}

// HSLToRGB converts hue, saturation, lightness back to a color
func HSLToRGB(hsl HSL) RGB {
	if hsl.S == 0 {
		return RGB{hsl.L, hsl.L, hsl.L}
	}

	var q float64
	if hsl.L < 0.5 {
		q = hsl.L * (1.0 + hsl.S)
	} else {
		q = hsl.L + hsl.S - hsl.L*hsl.S
	}
	p := 2.0*hsl.L - q

	return RGB{
		R: hueToRGB(p, q, hsl.H+1.0/3.0),
		G: hueToRGB(p, q, hsl.H),
		B: hueToRGB(p, q, hsl.H-1.0/3.0),
	}
}

// IsAchromatic reports whether c falls below the grayscale threshold
func IsAchromatic(c RGB) bool {
	return RGBToHSL(c).S < GrayscaleThreshold
}

// SynthesizedHue maps lightness, biased by warmth, from the cool to the warm hue
func SynthesizedHue(lightness, warm float64) float64 {
	l := math.Pow(lightness, lightnessCurve)
	return mix(HueCool, HueWarm, clamp01(l+warm*warmthBias))
}

// SynthesizedSaturation grows with lightness and the saturation control and
// is zero for near-black samples
func SynthesizedSaturation(lightness, sat float64) float64 {
	l := math.Pow(lightness, lightnessCurve)
	return smoothstep(0.05, 0.85, l) * (baseSaturation + satSynthesis*sat)
}

// BlendAchromatic replaces achromatic samples with a synthesized color of
// the same lightness; chromatic samples pass through untouched.
func BlendAchromatic(c RGB, u Uniforms) RGB {
	hsl := RGBToHSL(c)
	if hsl.S >= GrayscaleThreshold {
		return c
	}
	return HSLToRGB(HSL{
		H: SynthesizedHue(hsl.L, u.Warm),
		S: SynthesizedSaturation(hsl.L, u.Sat),
		L: hsl.L,
	})
}

// BoostSaturation scales HSL saturation by 1 + 0.8*sat, clamped to 1
func BoostSaturation(c RGB, sat float64) RGB {
	hsl := RGBToHSL(c)
	hsl.S = clamp01(hsl.S * (1.0 + satBoost*sat))
	return HSLToRGB(hsl)
}

// Recolor is the blend followed by the global saturation boost
func Recolor(c RGB, u Uniforms) RGB {
	return BoostSaturation(BlendAchromatic(c, u), u.Sat)
}

// Sharpen pushes the center sample away from the cross blur by sharp*0.6
func Sharpen(center, blur RGB, sharp float64) RGB {
	k := sharp * sharpenGain
	return center.add(center.sub(blur).scale(k))
}

// Gamma raises every channel to 1/1.1
func Gamma(c RGB) RGB {
	return RGB{
		math.Pow(clamp01(c.R), gammaExponent),
		math.Pow(clamp01(c.G), gammaExponent),
		math.Pow(clamp01(c.B), gammaExponent),
	}
}

// Shade evaluates the full fragment program for texel (x, y). Sharpening
// runs on the raw samples before recoloring; gamma runs last.
func Shade(tex *Texture, x, y int, u Uniforms) RGB {
	c := tex.At(x, y)
	blur := c.
		add(tex.At(x, y-1)).
		add(tex.At(x, y+1)).
		add(tex.At(x-1, y)).
		add(tex.At(x+1, y)).
		scale(1.0 / 5.0)

	sharp := Sharpen(c, blur, u.Sharp).clamp()
	return Gamma(Recolor(sharp, u))
}

func mix(a, b, t float64) float64 {
	return a + (b-a)*t
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3.0 - 2.0*t)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
