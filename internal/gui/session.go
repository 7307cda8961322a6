// internal/gui/session.go
// Playback session: source, pipeline, scheduler and recorder behind the window
package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
	"video-recolorizer/internal/io"
	"video-recolorizer/internal/metrics"
	"video-recolorizer/internal/output"
	"video-recolorizer/internal/recording"
)

// metricsEvery is how many frames pass between metric reports
const metricsEvery = 15

// PipelineFactory builds the pipeline for a strategy. Initialization
// failures wrap core.ErrInitFailed.
type PipelineFactory func(strategy config.Strategy, logger logrus.FieldLogger) (core.Pipeline, error)

// Session owns everything that runs outside the UI goroutine. None of its
// methods may be called from inside a Canvas.Draw.
type Session struct {
	cfg      config.Config
	controls *config.ControlState
	factory  PipelineFactory
	logger   logrus.FieldLogger

	status    core.StatusFunc
	onChange  func()
	onMetrics func(values map[string]float64, stats core.SchedulerStats)

	sink      *output.CanvasSink
	recorder  *recording.Recorder
	recordErr error
	evaluator *metrics.Evaluator

	mu        sync.Mutex
	strategy  config.Strategy
	source    io.FrameSource
	path      string
	pipeline  core.Pipeline
	scheduler *core.Scheduler
	lastBlob  *recording.Blob
}

// NewSession probes the recording backend once; when it fails recording
// stays unavailable for the lifetime of the session
func NewSession(cfg config.Config, canvas output.Canvas, factory PipelineFactory, logger logrus.FieldLogger) *Session {
	s := &Session{
		cfg:       cfg,
		controls:  config.NewControlState(cfg.Controls),
		factory:   factory,
		logger:    logger,
		strategy:  cfg.Pipeline,
		sink:      output.NewCanvasSink(canvas),
		evaluator: metrics.NewEvaluator(),
	}
	s.recorder = recording.NewRecorder(s.sink, cfg.Recording.FPS, logger)
	s.recordErr = recording.Probe(cfg.Recording.Dir, cfg.Recording.Codec)
	if s.recordErr != nil {
		logger.WithError(s.recordErr).Warn("SESSION: Recording disabled")
	}
	return s
}

// SetCallbacks wires status lines, state changes and metric reports
func (s *Session) SetCallbacks(status core.StatusFunc, onChange func(), onMetrics func(map[string]float64, core.SchedulerStats)) {
	s.status = status
	s.onChange = onChange
	s.onMetrics = onMetrics
}

// Controls is the live control state the UI writes into
func (s *Session) Controls() *config.ControlState {
	return s.controls
}

// RecordingError is the probe failure, nil when recording works
func (s *Session) RecordingError() error {
	return s.recordErr
}

// Load replaces the current source. A running loop is stopped first.
func (s *Session) Load(path string) error {
	s.Stop()
	s.stopRecording()

	src, err := io.Open(path, s.logger)
	if err != nil {
		s.report("Error: " + err.Error())
		return err
	}

	s.mu.Lock()
	old := s.source
	s.source = src
	s.path = path
	s.scheduler = nil
	if s.pipeline != nil {
		s.pipeline.Reset()
	}
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.sink.Clear()

	s.logger.WithFields(logrus.Fields{
		"filepath": path,
		"fps":      src.FPS(),
		"frames":   src.FrameCount(),
	}).Info("SESSION: Source loaded")
	s.report(core.StatusReady)
	return nil
}

// SetStrategy selects the pipeline for the next Start
func (s *Session) SetStrategy(strategy config.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = strategy
}

// Start runs the loop over the loaded source. It is a no-op while running.
func (s *Session) Start(ctx context.Context) error {
	scheduler, err := s.prepare()
	if err != nil || scheduler == nil {
		return err
	}

	err = scheduler.Start(ctx)
	s.changed()
	return err
}

// prepare builds a scheduler for the loaded source, or returns nil when
// one is already running
func (s *Session) prepare() (*core.Scheduler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		s.report("Load a video first.")
		return nil, errors.New("no source loaded")
	}
	if s.scheduler != nil && s.scheduler.Running() {
		return nil, nil
	}

	pipeline, err := s.ensurePipeline()
	if err != nil {
		s.report(core.StatusForError(err))
		return nil, err
	}
	pipeline.Reset()

	var scheduler *core.Scheduler
	metered := &core.MeteredPipeline{
		Pipeline:  pipeline,
		Evaluator: s.evaluator,
		Every:     metricsEvery,
		Report: func(index int, values map[string]float64) {
			if s.onMetrics != nil {
				s.onMetrics(values, scheduler.Stats())
			}
		},
	}
	scheduler = core.NewScheduler(s.source, metered, s.sink, s.controls, core.SchedulerOptions{
		Mode:            core.ProbeSchedule(s.source, true),
		RefreshInterval: s.cfg.RefreshInterval(),
		Status: func(status string) {
			s.report(status)
			s.changed()
		},
		Logger: s.logger,
	})
	s.scheduler = scheduler
	return scheduler, nil
}

// ensurePipeline returns the pipeline for the selected strategy, building
// it on first use or after the strategy changed. Caller holds mu.
func (s *Session) ensurePipeline() (core.Pipeline, error) {
	if s.pipeline != nil && s.pipeline.Name() == string(s.strategy) {
		return s.pipeline, nil
	}
	if s.pipeline != nil {
		s.pipeline.Close()
		s.pipeline = nil
	}

	pipeline, err := s.factory(s.strategy, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("pipeline", pipeline.Name()).Info("SESSION: Pipeline ready")
	s.pipeline = pipeline
	return pipeline, nil
}

// Stop halts the loop after the in-progress frame. Safe at any time.
func (s *Session) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}
	s.changed()
}

// Wait blocks until the current loop ends on its own or is stopped
func (s *Session) Wait() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler != nil {
		scheduler.Wait()
	}
}

// State reports what the transport buttons should allow
func (s *Session) State() (loaded, running, recording, canRecord bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loaded = s.source != nil
	running = s.scheduler != nil && s.scheduler.Running()
	return loaded, running, s.recorder.Recording(), s.recordErr == nil
}

// ToggleRecording starts a recording, or stops the current one and saves
// it into the recording directory
func (s *Session) ToggleRecording(ctx context.Context) error {
	if s.recordErr != nil {
		s.report(core.StatusForError(s.recordErr))
		return s.recordErr
	}

	if !s.recorder.Recording() {
		if err := s.recorder.Start(ctx); err != nil {
			return err
		}
		s.report("Recording...")
		s.changed()
		return nil
	}

	blob := s.stopRecording()
	s.changed()
	if blob == nil {
		return nil
	}
	if blob.Chunks() == 0 {
		s.report("Recording is empty.")
		return nil
	}

	path := filepath.Join(s.cfg.Recording.Dir, blob.FileName(".avi"))
	if err := blob.Save(path, s.cfg.Recording.Codec); err != nil {
		s.report("Error: " + err.Error())
		return err
	}
	s.report(fmt.Sprintf("Recording saved: %s", path))
	return nil
}

// SaveRecording writes the last finished recording to path
func (s *Session) SaveRecording(path string) error {
	s.mu.Lock()
	blob := s.lastBlob
	s.mu.Unlock()

	if blob == nil {
		err := errors.New("no recording to save")
		s.report("Error: " + err.Error())
		return err
	}
	if err := blob.Save(path, s.cfg.Recording.Codec); err != nil {
		s.report("Error: " + err.Error())
		return err
	}
	s.report(fmt.Sprintf("Recording saved: %s", path))
	return nil
}

func (s *Session) stopRecording() *recording.Blob {
	if !s.recorder.Recording() {
		return nil
	}
	blob, err := s.recorder.Stop()
	if err != nil {
		s.logger.WithError(err).Warn("SESSION: Stopping recorder")
		return nil
	}
	s.mu.Lock()
	s.lastBlob = blob
	s.mu.Unlock()
	return blob
}

// Close stops everything and releases the source and pipeline
func (s *Session) Close() {
	s.Stop()
	s.stopRecording()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
	if s.pipeline != nil {
		s.pipeline.Close()
		s.pipeline = nil
	}
	s.sink.Close()
}

func (s *Session) report(status string) {
	if s.status != nil {
		s.status(status)
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
