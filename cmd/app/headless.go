package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/k0kubun/go-ansi"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
	"video-recolorizer/internal/io"
	"video-recolorizer/internal/output"
	"video-recolorizer/internal/recording"
)

// runHeadless renders input to outputPath as fast as the pipeline allows
// and returns the process exit code
func runHeadless(cfg config.Config, input, outputPath string, record bool, logger *logrus.Logger) int {
	color.Output = ansi.NewAnsiStdout()

	if input == "" {
		color.Red("-input is required with -headless")
		return 2
	}

	if err := render(cfg, input, outputPath, record, logger); err != nil {
		logger.WithError(err).Error("Headless render failed")
		color.Red("%s", core.StatusForError(err))
		return 1
	}
	return 0
}

func render(cfg config.Config, input, outputPath string, record bool, logger *logrus.Logger) error {
	src, err := io.Open(input, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	pipeline, err := newPipeline(cfg.Pipeline, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	fps := src.FPS()
	if fps <= 0 {
		fps = cfg.Recording.FPS
	}
	file := io.NewFileSink(outputPath, cfg.Recording.Codec, fps, logger)
	defer file.Close()

	bar := newProgressBar(src.FrameCount(), filepath.Base(input))
	sinks := output.Tee{file, core.SinkFunc(func(gocv.Mat) error {
		return bar.Add(1)
	})}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var recorder *recording.Recorder
	if record {
		if err := recording.Probe(cfg.Recording.Dir, cfg.Recording.Codec); err != nil {
			return err
		}
		canvas := output.NewCanvasSink(nil)
		defer canvas.Close()
		sinks = append(sinks, canvas)
		recorder = recording.NewRecorder(canvas, cfg.Recording.FPS, logger)
		if err := recorder.Start(ctx); err != nil {
			return err
		}
	}

	var (
		mu      sync.Mutex
		lastErr string
	)
	scheduler := core.NewScheduler(src, pipeline, sinks, config.NewControlState(cfg.Controls), core.SchedulerOptions{
		Mode:            core.ScheduleUnpaced,
		RefreshInterval: cfg.RefreshInterval(),
		Logger:          logger,
		Status: func(status string) {
			switch status {
			case core.StatusRunning, core.StatusFinished, core.StatusStopped:
				return
			}
			mu.Lock()
			lastErr = status
			mu.Unlock()
		},
	})

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()
	scheduler.Wait()
	bar.Finish()

	if recorder != nil {
		if err := saveRecording(recorder, cfg, logger); err != nil {
			return err
		}
	}

	stats := scheduler.Stats()
	logger.WithFields(logrus.Fields{
		"pipeline":  pipeline.Name(),
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
		"mean_ms":   stats.Timing.MeanMS,
		"fps":       stats.Timing.FPS,
		"output":    outputPath,
	}).Info("Headless render complete")

	mu.Lock()
	failed := lastErr
	mu.Unlock()
	if stats.Failed > 0 {
		return errors.Errorf("render stopped: %s", failed)
	}
	if ctx.Err() != nil {
		color.Yellow("%s %d frames written to %s", core.StatusStopped, file.Frames(), outputPath)
		return nil
	}
	color.Green("%s %d frames written to %s", core.StatusFinished, file.Frames(), outputPath)
	return nil
}

func saveRecording(recorder *recording.Recorder, cfg config.Config, logger logrus.FieldLogger) error {
	blob, err := recorder.Stop()
	if err != nil {
		return err
	}
	if blob.Chunks() == 0 {
		color.Yellow("Recording is empty.")
		return nil
	}
	path := filepath.Join(cfg.Recording.Dir, blob.FileName(".avi"))
	if err := blob.Save(path, cfg.Recording.Codec); err != nil {
		return err
	}
	logger.WithField("filepath", path).Info("Recording saved")
	color.Cyan("Recording saved: %s", path)
	return nil
}

// newProgressBar sizes the bar by frame count. Sources that cannot report
// a count get a spinner.
func newProgressBar(frames int, name string) *progressbar.ProgressBar {
	if frames <= 0 {
		frames = -1
	}
	return progressbar.NewOptions(frames,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][RENDER][reset] "+name),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
