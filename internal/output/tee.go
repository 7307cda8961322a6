package output

import (
	"gocv.io/x/gocv"

	"video-recolorizer/internal/core"
)

// Tee commits every frame to each sink in order and stops at the first error
type Tee []core.Sink

func (t Tee) Put(mat gocv.Mat) error {
	for _, sink := range t {
		if err := sink.Put(mat); err != nil {
			return err
		}
	}
	return nil
}
