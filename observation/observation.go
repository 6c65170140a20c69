package observation

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-modules/viam-aprilgrid/grid"
)

// Observation is the grid-indexed record of which target corners were seen in one frame.
// ImagePoints and Observed always have one entry per target point.
type Observation struct {
	ImagePoints []r2.Point
	Observed    []bool
	Summary     Summary
}

// Summary describes what happened to the detections of one frame.
type Summary struct {
	Detected          int     `json:"detected"`
	RejectedBorder    int     `json:"rejected_border"`
	RejectedQuality   int     `json:"rejected_quality"`
	RejectedRange     int     `json:"rejected_range"`
	Accepted          int     `json:"accepted"`
	RejectedCorners   int     `json:"rejected_corners"`
	MeanDisplacement2 float64 `json:"mean_displacement_squared"`
	MaxDisplacement2  float64 `json:"max_displacement_squared"`
}

func newObservation(size int) Observation {
	return Observation{
		ImagePoints: make([]r2.Point, size),
		Observed:    make([]bool, size),
	}
}

// NumObserved returns the number of observed corners.
func (o Observation) NumObserved() int {
	n := 0
	for _, ok := range o.Observed {
		if ok {
			n++
		}
	}
	return n
}

// ConvertToCorrespondences pairs every observed image point with its target point, in
// ascending index order.
func ConvertToCorrespondences(obs Observation, topology *grid.Topology) ([]r3.Vector, []r2.Point, error) {
	if len(obs.ImagePoints) != topology.Size() || len(obs.Observed) != topology.Size() {
		return nil, nil, errors.Errorf("observation of %d points (%d flags) does not match a target of %d points",
			len(obs.ImagePoints), len(obs.Observed), topology.Size())
	}

	n := obs.NumObserved()
	objectPoints := make([]r3.Vector, 0, n)
	imagePoints := make([]r2.Point, 0, n)
	for i, ok := range obs.Observed {
		if !ok {
			continue
		}
		p, err := topology.PointAt(i)
		if err != nil {
			return nil, nil, err
		}
		objectPoints = append(objectPoints, p)
		imagePoints = append(imagePoints, obs.ImagePoints[i])
	}
	return objectPoints, imagePoints, nil
}
