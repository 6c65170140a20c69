package observation

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/viam-modules/viam-aprilgrid/detection"
	"github.com/viam-modules/viam-aprilgrid/detection/inject"
	"github.com/viam-modules/viam-aprilgrid/grid"
)

func TestConvertToCorrespondences(t *testing.T) {
	topo, err := grid.New(1, 2, 1.0, 0.5)
	test.That(t, err, test.ShouldBeNil)

	t.Run("pairs observed points in ascending index order", func(t *testing.T) {
		obs := newObservation(topo.Size())
		for _, i := range []int{6, 1, 3} {
			obs.ImagePoints[i] = r2.Point{X: float64(10 * i), Y: float64(i)}
			obs.Observed[i] = true
		}
		// written but not observed
		obs.ImagePoints[4] = r2.Point{X: 99, Y: 99}

		objectPoints, imagePoints, err := ConvertToCorrespondences(obs, topo)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(objectPoints), test.ShouldEqual, obs.NumObserved())
		test.That(t, len(imagePoints), test.ShouldEqual, obs.NumObserved())
		test.That(t, imagePoints, test.ShouldResemble, []r2.Point{{X: 10, Y: 1}, {X: 30, Y: 3}, {X: 60, Y: 6}})
		test.That(t, objectPoints, test.ShouldResemble, []r3.Vector{
			{X: 1, Y: 0, Z: 0},
			{X: 2.5, Y: 0, Z: 0},
			{X: 1.5, Y: 1, Z: 0},
		})
	})

	t.Run("an empty observation has no correspondences", func(t *testing.T) {
		objectPoints, imagePoints, err := ConvertToCorrespondences(newObservation(topo.Size()), topo)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, objectPoints, test.ShouldBeEmpty)
		test.That(t, imagePoints, test.ShouldBeEmpty)
	})

	t.Run("fails on an observation of another target", func(t *testing.T) {
		_, _, err := ConvertToCorrespondences(newObservation(topo.Size()+4), topo)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "does not match a target of 8 points")

		_, _, err = ConvertToCorrespondences(Observation{}, topo)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("assembler correspondences match the observed tags", func(t *testing.T) {
		target, err := grid.New(6, 6, 0.088, 0.3)
		test.That(t, err, test.ShouldBeNil)
		a, err := NewAssembler(target, &inject.Detector{}, identityRefiner(), DefaultOptions(), logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)

		detections := []detection.RawDetection{
			placedTag(target, 9), placedTag(target, 3), placedTag(target, 33), placedTag(target, 17),
		}
		obs, success, err := a.Assemble(testImage(), detections)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, success, test.ShouldBeTrue)

		objectPoints, imagePoints, err := a.Correspondences(obs)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, objectPoints, test.ShouldHaveLength, 16)
		test.That(t, imagePoints, test.ShouldHaveLength, 16)

		// tag 3 holds the lowest indices, starting with its bottom-left corner
		bottomLeft, err := target.GridPointAt(0, 6)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, objectPoints[0], test.ShouldResemble, bottomLeft)
		test.That(t, imagePoints[0], test.ShouldResemble, placedTag(target, 3).Corners[0])
	})
}
