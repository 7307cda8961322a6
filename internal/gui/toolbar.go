// Transport buttons
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Toolbar holds Open, Start, Stop and Record
type Toolbar struct {
	hbox   *fyne.Container
	open   *widget.Button
	start  *widget.Button
	stop   *widget.Button
	record *widget.Button

	onOpen   func()
	onStart  func()
	onStop   func()
	onRecord func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.initializeUI()
	return toolbar
}

func (t *Toolbar) initializeUI() {
	t.open = widget.NewButton("Open Video...", func() { call(t.onOpen) })
	t.start = widget.NewButton("Start", func() { call(t.onStart) })
	t.start.Importance = widget.HighImportance
	t.stop = widget.NewButton("Stop", func() { call(t.onStop) })
	t.record = widget.NewButton("Record", func() { call(t.onRecord) })

	t.hbox = container.NewHBox(t.open, widget.NewSeparator(), t.start, t.stop, widget.NewSeparator(), t.record)

	t.start.Disable()
	t.stop.Disable()
	t.record.Disable()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (t *Toolbar) GetContainer() fyne.CanvasObject {
	return t.hbox
}

func (t *Toolbar) SetCallbacks(onOpen, onStart, onStop, onRecord func()) {
	t.onOpen = onOpen
	t.onStart = onStart
	t.onStop = onStop
	t.onRecord = onRecord
}

// SetState enables the buttons that make sense for the current state.
// Recording stays disabled when the backend cannot encode.
func (t *Toolbar) SetState(loaded, running, recording, canRecord bool) {
	setEnabled(t.start, loaded && !running)
	setEnabled(t.stop, running)
	setEnabled(t.record, canRecord && (running || recording))
	if recording {
		t.record.SetText("Stop Recording")
	} else {
		t.record.SetText("Record")
	}
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}
