// Rolling tick timing statistics
package metrics

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TickSummary is a snapshot of recent tick timings in milliseconds
type TickSummary struct {
	Samples int
	MeanMS  float64
	StdMS   float64
	MaxMS   float64
	FPS     float64
}

// TickStats keeps the last window durations observed by the render loop
type TickStats struct {
	mu      sync.Mutex
	window  int
	samples []float64
	next    int
}

func NewTickStats(window int) *TickStats {
	if window < 1 {
		window = 1
	}
	return &TickStats{
		window:  window,
		samples: make([]float64, 0, window),
	}
}

// Observe records one tick duration
func (t *TickStats) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ms := float64(d) / float64(time.Millisecond)
	if len(t.samples) < t.window {
		t.samples = append(t.samples, ms)
		return
	}
	t.samples[t.next] = ms
	t.next = (t.next + 1) % t.window
}

// Summary returns mean, standard deviation and max of the window
func (t *TickStats) Summary() TickSummary {
	t.mu.Lock()
	samples := append([]float64(nil), t.samples...)
	t.mu.Unlock()

	summary := TickSummary{Samples: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	summary.MeanMS = stat.Mean(samples, nil)
	if len(samples) > 1 {
		summary.StdMS = stat.StdDev(samples, nil)
	}
	for _, s := range samples {
		if s > summary.MaxMS {
			summary.MaxMS = s
		}
	}
	if summary.MeanMS > 0 {
		summary.FPS = 1000.0 / summary.MeanMS
	}
	return summary
}
