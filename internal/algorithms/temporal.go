// Temporal smoothing of the chroma planes across frames
package algorithms

import (
	"fmt"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Blend weights of the current frame and the previous frame's chroma
const (
	TemporalCurrentWeight = 0.35
	TemporalHistoryWeight = 0.65
)

// ChromaHistory holds the previous frame's post-blend Lab a and b planes.
// The zero value is the empty history of the first frame.
type ChromaHistory struct {
	A     gocv.Mat
	B     gocv.Mat
	valid bool
}

// Empty reports whether there is no previous frame to blend with
func (h ChromaHistory) Empty() bool {
	return !h.valid
}

// Close releases the planes and leaves h empty
func (h *ChromaHistory) Close() {
	if !h.valid {
		return
	}
	h.A.Close()
	h.B.Close()
	h.valid = false
}

func (h ChromaHistory) matches(a gocv.Mat) bool {
	return h.valid && h.A.Rows() == a.Rows() && h.A.Cols() == a.Cols()
}

// BlendChroma mixes the a and b planes with hist. It returns new planes and
// the next history, which holds its own copies of them. hist is not
// consumed; the caller still closes it. An empty history, or one of a
// different size, leaves the planes unchanged.
func BlendChroma(a, b gocv.Mat, hist ChromaHistory) (gocv.Mat, gocv.Mat, ChromaHistory) {
	var outA, outB gocv.Mat
	if hist.matches(a) {
		outA = gocv.NewMat()
		outB = gocv.NewMat()
		gocv.AddWeighted(a, TemporalCurrentWeight, hist.A, TemporalHistoryWeight, 0, &outA)
		gocv.AddWeighted(b, TemporalCurrentWeight, hist.B, TemporalHistoryWeight, 0, &outB)
	} else {
		outA = a.Clone()
		outB = b.Clone()
	}

	next := ChromaHistory{A: outA.Clone(), B: outB.Clone(), valid: true}
	return outA, outB, next
}

// SmoothChroma applies BlendChroma to a BGR frame's Lab chroma. With an
// empty history the frame is returned as an exact copy.
func SmoothChroma(input gocv.Mat, hist ChromaHistory) (gocv.Mat, ChromaHistory, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), ChromaHistory{}, err
	}

	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(input, &lab, gocv.ColorBGRToLab); err != nil {
		return gocv.NewMat(), ChromaHistory{}, errors.Wrap(err, "temporal: BGR to Lab")
	}

	planes := gocv.Split(lab)
	defer closeAll(planes)
	if len(planes) != 3 {
		return gocv.NewMat(), ChromaHistory{}, fmt.Errorf("temporal: expected 3 Lab planes, got %d", len(planes))
	}

	first := !hist.matches(planes[1])
	a, b, next := BlendChroma(planes[1], planes[2], hist)
	defer a.Close()
	defer b.Close()

	if first {
		return input.Clone(), next, nil
	}

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{planes[0], a, b}, &merged)

	output := gocv.NewMat()
	if err := gocv.CvtColor(merged, &output, gocv.ColorLabToBGR); err != nil {
		output.Close()
		next.Close()
		return gocv.NewMat(), ChromaHistory{}, errors.Wrap(err, "temporal: Lab to BGR")
	}
	return output, next, nil
}
