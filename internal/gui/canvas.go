// internal/gui/canvas.go
// Preview canvas and metrics panel
package gui

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"video-recolorizer/internal/core"
)

// PreviewCanvas shows the latest pipeline output. It implements
// output.Canvas; Draw blocks until the UI thread has taken the picture.
type PreviewCanvas struct {
	image *canvas.Image
	card  *widget.Card
}

func NewPreviewCanvas() *PreviewCanvas {
	placeholder := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 320; x++ {
			placeholder.Set(x, y, color.RGBA{24, 24, 24, 255})
		}
	}

	img := canvas.NewImageFromImage(placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(640, 360))

	return &PreviewCanvas{
		image: img,
		card:  widget.NewCard("Preview", "", img),
	}
}

func (pc *PreviewCanvas) GetContainer() fyne.CanvasObject {
	return pc.card
}

// Draw must not be called from the UI goroutine
func (pc *PreviewCanvas) Draw(img image.Image) {
	fyne.DoAndWait(func() {
		pc.image.Image = img
		pc.image.Refresh()
	})
}

// MetricsPanel displays frame metrics and loop timing
type MetricsPanel struct {
	vbox    *fyne.Container
	content *fyne.Container
}

func NewMetricsPanel() *MetricsPanel {
	panel := &MetricsPanel{}
	panel.content = container.NewVBox(widget.NewLabel("Metrics appear once processing starts."))
	panel.vbox = container.NewVBox(widget.NewCard("Metrics", "", panel.content))
	return panel
}

func (mp *MetricsPanel) GetContainer() fyne.CanvasObject {
	return mp.vbox
}

// Update must run on the UI goroutine
func (mp *MetricsPanel) Update(values map[string]float64, stats core.SchedulerStats) {
	mp.content.RemoveAll()

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mp.content.Add(widget.NewLabel(formatMetric(name, values[name])))
	}

	mp.content.Add(widget.NewSeparator())
	mp.content.Add(widget.NewLabel(fmt.Sprintf("Frame time: %.1f ms (max %.1f)", stats.Timing.MeanMS, stats.Timing.MaxMS)))
	mp.content.Add(widget.NewLabel(fmt.Sprintf("Throughput: %.1f fps", stats.Timing.FPS)))
	mp.content.Add(widget.NewLabel(fmt.Sprintf("Processed %d, skipped %d", stats.Processed, stats.Skipped)))
	mp.content.Refresh()
}

func (mp *MetricsPanel) Clear() {
	mp.content.RemoveAll()
	mp.content.Add(widget.NewLabel("Metrics appear once processing starts."))
	mp.content.Refresh()
}

func formatMetric(name string, value float64) string {
	switch name {
	case "psnr":
		return fmt.Sprintf("PSNR: %.2f dB", value)
	case "saturation_in":
		return fmt.Sprintf("Saturation in: %.1f", value)
	case "saturation_out":
		return fmt.Sprintf("Saturation out: %.1f", value)
	case "colorfulness":
		return fmt.Sprintf("Colorfulness: %.1f", value)
	default:
		return fmt.Sprintf("%s: %.3f", name, value)
	}
}
