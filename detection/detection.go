// Package detection defines the marker detector and corner refiner used to observe an aprilgrid.
package detection

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrNoDetector denotes that no marker detector was compiled into this binary.
var ErrNoDetector = errors.New("no marker detector available, build with -tags gocv")

// RawDetection is a single decoded marker as reported by a Detector.
// Corners are ordered bottom-left, bottom-right, top-right, top-left in the tag frame.
type RawDetection struct {
	ID      int
	Corners [4]r2.Point
	Good    bool
}

// Detector finds markers in a grayscale image. An image without markers yields an empty slice.
type Detector interface {
	DetectMarkers(img *image.Gray) ([]RawDetection, error)
}

// RefineCriteria bounds the iterative subpixel refinement of a single corner.
type RefineCriteria struct {
	// WindowHalfSize is the half side length of the search window in pixels.
	WindowHalfSize int
	MaxIterations  int
	// Epsilon stops the iteration once a step moves the corner by no more than this many pixels.
	Epsilon float64
}

// DefaultRefineCriteria returns a 2px half window, 30 iterations and 0.1px epsilon.
func DefaultRefineCriteria() RefineCriteria {
	return RefineCriteria{
		WindowHalfSize: 2,
		MaxIterations:  30,
		Epsilon:        0.1,
	}
}

// Refiner moves a corner estimate to subpixel precision. It always returns a coordinate,
// possibly the initial one.
type Refiner interface {
	RefineCorner(img *image.Gray, initial r2.Point, criteria RefineCriteria) r2.Point
}
