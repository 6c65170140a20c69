// Package observation turns raw marker detections into grid-aligned aprilgrid observations.
package observation

import (
	"fmt"
	"image"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"

	"github.com/viam-modules/viam-aprilgrid/detection"
	"github.com/viam-modules/viam-aprilgrid/grid"
)

// ErrDuplicateMarkerID denotes that two detections of one frame decoded to the same tag id,
// which means tags that do not belong to the target are visible.
var ErrDuplicateMarkerID = errors.New("duplicate marker id detected")

// DuplicateMarkerIDError reports the tag id that was seen more than once.
type DuplicateMarkerIDError struct {
	ID int
}

func (e *DuplicateMarkerIDError) Error() string {
	return fmt.Sprintf("%s: tag %d appears more than once, hide tags not belonging to the target", ErrDuplicateMarkerID, e.ID)
}

// Is makes errors.Is(err, ErrDuplicateMarkerID) hold.
func (e *DuplicateMarkerIDError) Is(target error) bool {
	return target == ErrDuplicateMarkerID
}

// DebugSink receives extracted frames for inspection. Nothing it does affects the observation.
type DebugSink interface {
	Render(img *image.Gray, detections []detection.RawDetection, refined []r2.Point, success bool)
}

// Assembler extracts observations of a single aprilgrid.
type Assembler struct {
	topology *grid.Topology
	detector detection.Detector
	refiner  detection.Refiner
	opts     Options
	sink     DebugSink
	logger   logging.Logger
}

// AssemblerOption configures optional collaborators of an Assembler.
type AssemblerOption func(*Assembler)

// WithDebugSink attaches a sink that receives frames when ShowExtractionVideo is set.
func WithDebugSink(sink DebugSink) AssemblerOption {
	return func(a *Assembler) {
		a.sink = sink
	}
}

// NewAssembler returns an Assembler for the given target. The refiner may be nil when
// subpixel refinement is disabled.
func NewAssembler(
	topology *grid.Topology,
	detector detection.Detector,
	refiner detection.Refiner,
	opts Options,
	logger logging.Logger,
	options ...AssemblerOption,
) (*Assembler, error) {
	if topology == nil {
		return nil, errors.New("assembler requires a grid topology")
	}
	if detector == nil {
		return nil, errors.New("assembler requires a marker detector")
	}
	if opts.DoSubpixRefinement && refiner == nil {
		return nil, errors.New("subpixel refinement enabled without a refiner")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid extraction options")
	}
	if err := crossCheckTagIndices(topology); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogger("aprilgrid")
	}

	a := &Assembler{
		topology: topology,
		detector: detector,
		refiner:  refiner,
		opts:     opts,
		logger:   logger,
	}
	for _, o := range options {
		o(a)
	}
	return a, nil
}

// Topology returns the target the assembler extracts.
func (a *Assembler) Topology() *grid.Topology {
	return a.topology
}

// Options returns the extraction options.
func (a *Assembler) Options() Options {
	return a.opts
}

// ComputeObservation detects the tags in img and assembles the observation. The returned bool
// is false when too few tags survived filtering.
func (a *Assembler) ComputeObservation(img *image.Gray) (Observation, bool, error) {
	if img == nil {
		return Observation{}, false, errors.New("no image given")
	}
	detections, err := a.detector.DetectMarkers(img)
	if err != nil {
		return newObservation(a.topology.Size()), false, errors.Wrap(err, "detecting markers")
	}
	return a.Assemble(img, detections)
}

// Assemble filters the raw detections of img and inserts their corners at the matching
// target indices.
func (a *Assembler) Assemble(img *image.Gray, detections []detection.RawDetection) (Observation, bool, error) {
	if img == nil {
		return Observation{}, false, errors.New("no image given")
	}
	obs := newObservation(a.topology.Size())
	obs.Summary.Detected = len(detections)

	accepted := a.filter(img.Bounds(), detections, &obs.Summary)
	obs.Summary.Accepted = len(accepted)

	if len(accepted) < a.opts.MinTagsForValidObs {
		a.logger.Debugf("only %d of the required %d tags survived filtering, frame not used",
			len(accepted), a.opts.MinTagsForValidObs)
		return obs, false, nil
	}

	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].ID < accepted[j].ID })

	for i := 1; i < len(accepted); i++ {
		if accepted[i].ID == accepted[i-1].ID {
			if a.opts.ShowExtractionVideo && a.sink != nil {
				a.sink.Render(img, []detection.RawDetection{accepted[i-1], accepted[i]}, nil, false)
			}
			return obs, false, &DuplicateMarkerIDError{ID: accepted[i].ID}
		}
	}

	raw := make([]r2.Point, 0, 4*len(accepted))
	for _, d := range accepted {
		raw = append(raw, d.Corners[:]...)
	}

	refined := raw
	if a.opts.DoSubpixRefinement {
		refined = make([]r2.Point, len(raw))
		for i, p := range raw {
			refined[i] = a.refiner.RefineCorner(img, p, a.opts.Refine)
		}
	}

	if a.opts.ShowExtractionVideo && a.sink != nil {
		a.sink.Render(img, accepted, refined, true)
	}

	displacements := make([]float64, 0, len(raw))
	for k, d := range accepted {
		indices := tagIndices(d.ID, a.topology.Cols())
		for j, idx := range indices {
			delta := refined[4*k+j].Sub(raw[4*k+j])
			displacement2 := delta.Dot(delta)
			displacements = append(displacements, displacement2)

			obs.ImagePoints[idx] = refined[4*k+j]
			if displacement2 <= a.opts.MaxSubpixDisplacementSquared {
				obs.Observed[idx] = true
			} else {
				obs.Observed[idx] = false
				obs.Summary.RejectedCorners++
				a.logger.Debugf("subpixel refinement moved point %d by %.3fpx^2, point not used", idx, displacement2)
			}
		}
	}

	if mean, err := stats.Mean(displacements); err == nil {
		obs.Summary.MeanDisplacement2 = mean
	}
	if maxDisplacement, err := stats.Max(displacements); err == nil {
		obs.Summary.MaxDisplacement2 = maxDisplacement
	}
	return obs, true, nil
}

// Correspondences pairs the observed corners of obs with their target points.
func (a *Assembler) Correspondences(obs Observation) ([]r3.Vector, []r2.Point, error) {
	return ConvertToCorrespondences(obs, a.topology)
}

// filter drops tags near the image border, tags flagged as bad and tags whose id does not
// belong to the target. Tags close to the border often have extrapolated corners.
func (a *Assembler) filter(bounds image.Rectangle, detections []detection.RawDetection, summary *Summary) []detection.RawDetection {
	minDist := a.opts.MinBorderDistance
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	accepted := make([]detection.RawDetection, 0, len(detections))
	for _, d := range detections {
		nearBorder := false
		for _, c := range d.Corners {
			x, y := c.X-float64(bounds.Min.X), c.Y-float64(bounds.Min.Y)
			if x < minDist || x > width-minDist || y < minDist || y > height-minDist {
				nearBorder = true
			}
		}
		switch {
		case nearBorder:
			summary.RejectedBorder++
		case !d.Good:
			summary.RejectedQuality++
		case d.ID < 0 || d.ID >= a.topology.TagCount():
			summary.RejectedRange++
		default:
			accepted = append(accepted, d)
		}
	}
	return accepted
}

// tagIndices returns the target indices of the four corners of tag id on a target with
// pointCols point columns, in tag corner order.
func tagIndices(id, pointCols int) [4]int {
	tagCols := pointCols / 2
	base := (id/tagCols)*pointCols*2 + (id%tagCols)*2
	return [4]int{base, base + 1, base + pointCols + 1, base + pointCols}
}

// crossCheckTagIndices verifies tagIndices against the placement of the topology itself.
func crossCheckTagIndices(topology *grid.Topology) error {
	for id := 0; id < topology.TagCount(); id++ {
		expected, err := topology.TagCorners(id)
		if err != nil {
			return err
		}
		if got := tagIndices(id, topology.Cols()); got != expected {
			return errors.Errorf("tag %d maps to indices %v but the target places it at %v", id, got, expected)
		}
	}
	return nil
}
