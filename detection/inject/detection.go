// Package inject provides dependency injected structures for mocking the detection interfaces.
package inject

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/viam-modules/viam-aprilgrid/detection"
)

// Detector is an injected Detector.
type Detector struct {
	DetectMarkersFunc func(img *image.Gray) ([]detection.RawDetection, error)
}

// DetectMarkers calls the injected DetectMarkers or returns no detections.
func (d *Detector) DetectMarkers(img *image.Gray) ([]detection.RawDetection, error) {
	if d.DetectMarkersFunc == nil {
		return nil, nil
	}
	return d.DetectMarkersFunc(img)
}

// Refiner is an injected Refiner.
type Refiner struct {
	detection.NativeRefiner
	RefineCornerFunc func(img *image.Gray, initial r2.Point, criteria detection.RefineCriteria) r2.Point
}

// RefineCorner calls the injected RefineCorner or the native version.
func (r *Refiner) RefineCorner(img *image.Gray, initial r2.Point, criteria detection.RefineCriteria) r2.Point {
	if r.RefineCornerFunc == nil {
		return r.NativeRefiner.RefineCorner(img, initial, criteria)
	}
	return r.RefineCornerFunc(img, initial, criteria)
}
