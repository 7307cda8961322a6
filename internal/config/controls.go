// Control parameters read by the per-frame pipelines
package config

import (
	"fmt"
	"sync"
)

// ResolutionMode selects the processing cap and whether frames are skipped
type ResolutionMode string

const (
	// ResolutionFast caps height at 720 and processes every other frame
	ResolutionFast ResolutionMode = "fast"
	// ResolutionQuality caps height at 1080 and processes every frame
	ResolutionQuality ResolutionMode = "quality"
)

// MaxHeight returns the height cap applied before shading
func (m ResolutionMode) MaxHeight() int {
	if m == ResolutionFast {
		return 720
	}
	return 1080
}

// Valid reports whether the mode is one of the known values
func (m ResolutionMode) Valid() bool {
	return m == ResolutionFast || m == ResolutionQuality
}

// Controls holds the user adjustable values. Warmth, Saturation, Sharpness
// and Denoise are on a 0-100 scale.
type Controls struct {
	Warmth     float64        `yaml:"warmth"`
	Saturation float64        `yaml:"saturation"`
	Sharpness  float64        `yaml:"sharpness"`
	Denoise    float64        `yaml:"denoise"`
	Upscale    float64        `yaml:"upscale"`
	Resolution ResolutionMode `yaml:"resolution"`
}

// DefaultControls returns the values the preview starts with
func DefaultControls() Controls {
	return Controls{
		Warmth:     50,
		Saturation: 50,
		Sharpness:  30,
		Denoise:    0,
		Upscale:    1,
		Resolution: ResolutionQuality,
	}
}

// SkipFrames reports whether the scheduler should drop every other frame
func (c Controls) SkipFrames() bool {
	return c.Resolution == ResolutionFast
}

// Normalized returns warmth, saturation and sharpness mapped to 0..1
func (c Controls) Normalized() (warm, sat, sharp float64) {
	return c.Warmth / 100.0, c.Saturation / 100.0, c.Sharpness / 100.0
}

// Validate checks every control against its range
func (c Controls) Validate() error {
	ranged := []struct {
		name  string
		value float64
	}{
		{"warmth", c.Warmth},
		{"saturation", c.Saturation},
		{"sharpness", c.Sharpness},
		{"denoise", c.Denoise},
	}
	for _, r := range ranged {
		if r.value < 0 || r.value > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %.2f", r.name, r.value)
		}
	}

	if c.Upscale <= 0 || c.Upscale > 4 {
		return fmt.Errorf("upscale must be in (0, 4], got %.2f", c.Upscale)
	}

	if !c.Resolution.Valid() {
		return fmt.Errorf("unknown resolution mode: %q", c.Resolution)
	}

	return nil
}

// ControlState is the live, last-write-wins holder of Controls shared
// between the UI and the render loop.
type ControlState struct {
	mu       sync.RWMutex
	controls Controls
}

func NewControlState(initial Controls) *ControlState {
	return &ControlState{controls: initial}
}

// Snapshot returns the current controls by value
func (s *ControlState) Snapshot() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}

// Set replaces all controls
func (s *ControlState) Set(c Controls) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = c
}

// Update applies fn to the current controls under the write lock
func (s *ControlState) Update(fn func(*Controls)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.controls)
}
