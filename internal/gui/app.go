// Main window: preview, controls, transport and status
package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/config"
	"video-recolorizer/internal/core"
)

// Application represents the main window
type Application struct {
	app       fyne.App
	window    fyne.Window
	logger    *logrus.Logger
	debugMode bool

	ctx     context.Context
	cancel  context.CancelFunc
	session *Session

	// GUI components
	preview      *PreviewCanvas
	controls     *ControlPanel
	toolbar      *Toolbar
	metricsPanel *MetricsPanel
	menuHandler  *MenuHandler
	statusLabel  *widget.Label
}

func NewApplication(app fyne.App, cfg config.Config, factory PipelineFactory, logger *logrus.Logger, debugMode bool) *Application {
	window := app.NewWindow("Video Recolorizer")
	window.Resize(fyne.NewSize(1280, 800))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		app:       app,
		window:    window,
		logger:    logger,
		debugMode: debugMode,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.preview = NewPreviewCanvas()
	a.session = NewSession(cfg, a.preview, factory, logger)

	a.initializeGUI(cfg)
	a.setupLayout()
	a.setupCallbacks()
	a.refreshState()

	return a
}

func (a *Application) initializeGUI(cfg config.Config) {
	a.controls = NewControlPanel(a.session.Controls(), cfg.Pipeline, a.logger)
	a.toolbar = NewToolbar()
	a.metricsPanel = NewMetricsPanel()
	a.menuHandler = NewMenuHandler(a.window, a.logger)
	a.statusLabel = widget.NewLabel("Open a video to begin.")
	a.statusLabel.Wrapping = fyne.TextWrapWord
}

func (a *Application) setupLayout() {
	right := container.NewVBox(
		a.controls.GetContainer(),
		a.metricsPanel.GetContainer(),
	)

	center := container.NewBorder(
		a.toolbar.GetContainer(),
		widget.NewCard("Status", "", a.statusLabel),
		nil,
		nil,
		container.NewPadded(a.preview.GetContainer()),
	)

	split := container.NewHSplit(center, container.NewVScroll(right))
	split.SetOffset(0.72)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(split)
}

func (a *Application) setupCallbacks() {
	a.session.SetCallbacks(
		a.setStatus,
		func() { fyne.Do(a.refreshState) },
		func(values map[string]float64, stats core.SchedulerStats) {
			fyne.Do(func() { a.metricsPanel.Update(values, stats) })
		},
	)

	a.menuHandler.SetCallbacks(
		func(path string) {
			a.metricsPanel.Clear()
			// Load stops a running loop, which waits on the canvas
			go a.session.Load(path)
		},
		func(path string) {
			go a.session.SaveRecording(path)
		},
	)

	a.toolbar.SetCallbacks(
		a.menuHandler.OpenSource,
		func() { go a.session.Start(a.ctx) },
		func() { go a.session.Stop() },
		func() { go a.session.ToggleRecording(a.ctx) },
	)

	a.controls.SetStrategyCallback(func(strategy config.Strategy) {
		a.logger.WithField("pipeline", strategy).Info("CONTROLS: Pipeline selected")
		a.session.SetStrategy(strategy)
	})
}

// setStatus may be called from any goroutine
func (a *Application) setStatus(status string) {
	a.logger.WithField("status", status).Debug("STATUS")
	fyne.Do(func() { a.statusLabel.SetText(status) })
}

// refreshState runs on the UI goroutine
func (a *Application) refreshState() {
	loaded, running, recording, canRecord := a.session.State()
	a.toolbar.SetState(loaded, running, recording, canRecord)
	a.controls.SetPipelineLocked(running)
}

// LoadSource opens path as if picked from the menu
func (a *Application) LoadSource(path string) {
	go a.session.Load(path)
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	if err := a.session.RecordingError(); err != nil {
		a.setStatus(core.StatusForError(err))
	}

	a.window.SetCloseIntercept(func() {
		// the loop may be waiting on the UI goroutine to draw
		go func() {
			a.cleanup()
			fyne.Do(a.app.Quit)
		}()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.cancel()
	a.session.Close()
}
