// Video Recolorizer - live recolorization preview
// Author: Ervins Strauhmanis
// License: MIT
// Version: 3.0.0 - GPU + CPU pipelines, recording, headless render

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/algorithms"
	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
	"video-recolorizer/internal/gui"
	"video-recolorizer/internal/shader"
)

const (
	AppName    = "Video Recolorizer"
	AppID      = "com.strauhmanis.video-recolorizer"
	AppVersion = "3.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	headless := flag.Bool("headless", false, "Render -input to -output without opening a window")
	input := flag.String("input", "", "Video or image to open")
	outputPath := flag.String("output", "recolored.avi", "Output video for headless rendering")
	pipeline := flag.String("pipeline", "", "Pipeline strategy: gpu or cpu")
	record := flag.Bool("record", false, "Record the rendered frames during a headless run")
	flag.Parse()

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"headless":   *headless,
	}).Info("Starting " + AppName)

	cfg, err := loadConfig(*configPath, *pipeline)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(2)
	}

	if *headless {
		os.Exit(runHeadless(cfg, *input, *outputPath, *record, logger))
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaVideoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, cfg, newPipeline, logger, *debugMode)
	if *input != "" {
		mainApp.LoadSource(*input)
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// loadConfig applies defaults, then the file, then flag overrides
func loadConfig(path, strategy string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if strategy != "" {
		cfg.Pipeline = config.Strategy(strategy)
	}
	return cfg, cfg.Validate()
}

// newPipeline builds the pipeline for strategy
func newPipeline(strategy config.Strategy, logger logrus.FieldLogger) (core.Pipeline, error) {
	if strategy == config.StrategyCPU {
		return algorithms.NewCPUPipeline(logger), nil
	}
	return shader.NewPipeline(logger)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
