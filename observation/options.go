package observation

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-modules/viam-aprilgrid/detection"
)

// Options controls target extraction.
type Options struct {
	// MinBorderDistance is the minimum distance [px] of every tag corner from the image border.
	MinBorderDistance float64
	// MinTagsForValidObs is the number of tags that must survive filtering for a valid observation.
	MinTagsForValidObs int
	DoSubpixRefinement bool
	// MaxSubpixDisplacementSquared [px^2] above which a refined corner is not marked observed.
	MaxSubpixDisplacementSquared float64
	// ShowExtractionVideo hands every extracted frame to the debug sink.
	ShowExtractionVideo bool
	// BlackTagBorder is passed to the detector and unused here.
	BlackTagBorder int
	Refine         detection.RefineCriteria
}

// DefaultOptions returns the extraction options used when nothing else is configured.
func DefaultOptions() Options {
	return Options{
		MinBorderDistance:            5.0,
		MinTagsForValidObs:           4,
		DoSubpixRefinement:           true,
		MaxSubpixDisplacementSquared: 1.5,
		ShowExtractionVideo:          false,
		BlackTagBorder:               2,
		Refine:                       detection.DefaultRefineCriteria(),
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	var err error
	if o.MinBorderDistance < 0 {
		err = multierr.Append(err, errors.New("min border distance cannot be negative"))
	}
	if o.MinTagsForValidObs < 0 {
		err = multierr.Append(err, errors.New("min tags for a valid observation cannot be negative"))
	}
	if o.MaxSubpixDisplacementSquared < 0 {
		err = multierr.Append(err, errors.New("max subpixel displacement cannot be negative"))
	}
	if o.BlackTagBorder < 0 {
		err = multierr.Append(err, errors.New("black tag border cannot be negative"))
	}
	if o.DoSubpixRefinement {
		if o.Refine.WindowHalfSize < 1 {
			err = multierr.Append(err, errors.New("refinement window must be at least one pixel"))
		}
		if o.Refine.MaxIterations < 1 {
			err = multierr.Append(err, errors.New("refinement needs at least one iteration"))
		}
		if o.Refine.Epsilon < 0 {
			err = multierr.Append(err, errors.New("refinement epsilon cannot be negative"))
		}
	}
	return err
}
