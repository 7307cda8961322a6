package core

import (
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/metrics"
)

// MeteredPipeline evaluates frame metrics on every Nth output of the
// wrapped pipeline and hands them to Report
type MeteredPipeline struct {
	Pipeline
	Evaluator *metrics.Evaluator
	Every     int
	Report    func(index int, values map[string]float64)
}

func (m *MeteredPipeline) Process(frame Frame, controls config.Controls) (gocv.Mat, error) {
	out, err := m.Pipeline.Process(frame, controls)
	if err != nil || m.Report == nil || m.Evaluator == nil {
		return out, err
	}

	every := m.Every
	if every < 1 {
		every = 1
	}
	if frame.Index%every == 0 {
		m.Report(frame.Index, m.Evaluator.CalculateAll(frame.Mat, out))
	}
	return out, nil
}
