// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"video-recolorizer/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger logrus.FieldLogger

	onOpen          func(path string)
	onSaveRecording func(path string)
}

func NewMenuHandler(window fyne.Window, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Video...", mh.OpenSource),
		fyne.NewMenuItem("Save Recording...", mh.SaveRecording),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

// OpenSource asks for a video or image file
func (mh *MenuHandler) OpenSource() {
	mh.logger.Info("MENU: Opening file dialog for source selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		mh.logger.WithField("filepath", path).Info("MENU: Source selected")
		if mh.onOpen != nil {
			mh.onOpen(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

// SaveRecording asks where to write the last finished recording
func (mh *MenuHandler) SaveRecording() {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		// the blob writer opens the file itself
		writer.Close()

		if mh.onSaveRecording != nil {
			mh.onSaveRecording(path)
		}
	}, mh.window)

	fileDialog.SetFileName("recording.avi")
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".avi", ".mjpeg"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Video Recolorizer"),
		widget.NewSeparator(),
		widget.NewLabel("Per-frame recolorization of grayscale footage"),
		widget.NewLabel("with a shader pipeline and an OpenCV pipeline."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 240))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error("MENU: " + title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onOpen, onSaveRecording func(string)) {
	mh.onOpen = onOpen
	mh.onSaveRecording = onSaveRecording
}
