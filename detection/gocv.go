//go:build gocv

package detection

import (
	"image"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// NewDefaultDetector returns an OpenCV AprilTag 36h11 detector.
func NewDefaultDetector(blackTagBorder int) (Detector, error) {
	return NewArucoDetector(blackTagBorder), nil
}

// NewDefaultRefiner returns the OpenCV refiner.
func NewDefaultRefiner() Refiner {
	return CVRefiner{}
}

// ArucoDetector detects AprilTag 36h11 markers with the OpenCV aruco module.
type ArucoDetector struct {
	mu       sync.Mutex
	detector gocv.ArucoDetector
}

// NewArucoDetector creates a detector expecting blackTagBorder bits of border around each tag.
func NewArucoDetector(blackTagBorder int) *ArucoDetector {
	params := gocv.NewArucoDetectorParameters()
	params.SetMarkerBorderBits(blackTagBorder)
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDictAprilTag_36h11)
	return &ArucoDetector{detector: gocv.NewArucoDetectorWithParams(dict, params)}
}

// DetectMarkers implements Detector.
func (d *ArucoDetector) DetectMarkers(img *image.Gray) ([]RawDetection, error) {
	m, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, errors.Wrap(err, "converting image to mat")
	}
	defer m.Close() //nolint:errcheck

	d.mu.Lock()
	corners, ids, _ := d.detector.DetectMarkers(m)
	d.mu.Unlock()

	detections := make([]RawDetection, 0, len(ids))
	for k, id := range ids {
		if len(corners[k]) != 4 {
			continue
		}
		// aruco reports top-left, top-right, bottom-right, bottom-left
		c := corners[k]
		detections = append(detections, RawDetection{
			ID: id,
			Corners: [4]r2.Point{
				{X: float64(c[3].X), Y: float64(c[3].Y)},
				{X: float64(c[2].X), Y: float64(c[2].Y)},
				{X: float64(c[1].X), Y: float64(c[1].Y)},
				{X: float64(c[0].X), Y: float64(c[0].Y)},
			},
			Good: true,
		})
	}
	return detections, nil
}

// Close releases the OpenCV detector.
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// CVRefiner refines corners with gocv.CornerSubPix.
type CVRefiner struct{}

// RefineCorner implements Refiner.
func (CVRefiner) RefineCorner(img *image.Gray, initial r2.Point, criteria RefineCriteria) r2.Point {
	m, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return initial
	}
	defer m.Close() //nolint:errcheck

	pv := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{{X: float32(initial.X), Y: float32(initial.Y)}})
	defer pv.Close()
	corners := gocv.NewMatFromPoint2fVector(pv, true)
	defer corners.Close() //nolint:errcheck

	win := image.Pt(criteria.WindowHalfSize, criteria.WindowHalfSize)
	term := gocv.NewTermCriteria(gocv.Count|gocv.EPS, criteria.MaxIterations, criteria.Epsilon)
	gocv.CornerSubPix(m, &corners, win, image.Pt(-1, -1), term)

	refined := gocv.NewPoint2fVectorFromMat(corners)
	defer refined.Close()
	pts := refined.ToPoints()
	if len(pts) != 1 {
		return initial
	}
	return r2.Point{X: float64(pts[0].X), Y: float64(pts[0].Y)}
}
