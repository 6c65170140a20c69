package observation

import (
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestOptionsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		test.That(t, DefaultOptions().Validate(), test.ShouldBeNil)
	})

	t.Run("refinement criteria are ignored when refinement is off", func(t *testing.T) {
		opts := DefaultOptions()
		opts.DoSubpixRefinement = false
		opts.Refine.WindowHalfSize = 0
		opts.Refine.MaxIterations = 0
		test.That(t, opts.Validate(), test.ShouldBeNil)
	})

	t.Run("every invalid field is reported", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MinBorderDistance = -1
		opts.MinTagsForValidObs = -2
		opts.MaxSubpixDisplacementSquared = -0.5
		opts.BlackTagBorder = -1
		opts.Refine.WindowHalfSize = 0
		opts.Refine.MaxIterations = 0
		opts.Refine.Epsilon = -1

		err := opts.Validate()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, multierr.Errors(err), test.ShouldHaveLength, 7)
	})
}
