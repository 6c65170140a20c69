// Package testhelper contains helper variables and functions used across the tests of the
// aprilgrid service.
package testhelper

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/services/generic"
	"go.viam.com/test"

	viamaprilgrid "github.com/viam-modules/viam-aprilgrid"
	agConfig "github.com/viam-modules/viam-aprilgrid/config"
	"github.com/viam-modules/viam-aprilgrid/detection"
	detectioninject "github.com/viam-modules/viam-aprilgrid/detection/inject"
	"github.com/viam-modules/viam-aprilgrid/grid"
	s "github.com/viam-modules/viam-aprilgrid/sensors"
	"github.com/viam-modules/viam-aprilgrid/sensors/inject"
)

const (
	// SensorValidationMaxTimeoutForTest bounds how long New waits for the first frame.
	SensorValidationMaxTimeoutForTest = 50 * time.Millisecond
	// SensorValidationIntervalForTest is the retry interval while waiting for the first frame.
	SensorValidationIntervalForTest = 10 * time.Millisecond

	// FrameWidth and FrameHeight are the size of the synthetic frames.
	FrameWidth  = 640
	FrameHeight = 480

	tagPx   = 40.0
	pitchPx = 60.0
)

// TestTime is the capture time reported by the fake camera.
var TestTime = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

// Frame returns a blank frame of FrameWidth x FrameHeight.
func Frame() *image.Gray {
	return image.NewGray(image.Rect(0, 0, FrameWidth, FrameHeight))
}

// PlacedTag returns a detection of tag id where a target with 60px tag pitch would show it,
// tag 0 having its bottom-left corner at (100, 400).
func PlacedTag(topology *grid.Topology, id int) detection.RawDetection {
	row, col := id/topology.TagCols(), id%topology.TagCols()
	x := 100 + pitchPx*float64(col)
	y := 400 - pitchPx*float64(row)
	return detection.RawDetection{
		ID: id,
		Corners: [4]r2.Point{
			{X: x, Y: y},
			{X: x + tagPx, Y: y},
			{X: x + tagPx, Y: y - tagPx},
			{X: x, Y: y - tagPx},
		},
		Good: true,
	}
}

// ImageSource returns a camera that always yields frame.
func ImageSource(frame *image.Gray) *inject.TimedImageSource {
	return &inject.TimedImageSource{
		NameFunc: func() string { return "test_camera" },
		TimedImageFunc: func(ctx context.Context) (s.TimedImageResponse, error) {
			return s.TimedImageResponse{Image: frame, ReadingTime: TestTime}, nil
		},
	}
}

// Detector returns a detector that reports the given detections for every frame.
func Detector(detections ...detection.RawDetection) *detectioninject.Detector {
	return &detectioninject.Detector{
		DetectMarkersFunc: func(img *image.Gray) ([]detection.RawDetection, error) {
			return append([]detection.RawDetection(nil), detections...), nil
		},
	}
}

// Config returns the simplest valid service config for a target of tagRows x tagCols tags.
func Config(tagRows, tagCols int) *agConfig.Config {
	spacing := 0.3
	return &agConfig.Config{
		Camera:          "test_camera",
		TagRows:         tagRows,
		TagCols:         tagCols,
		TagSizeMeters:   0.088,
		TagSpacingRatio: &spacing,
	}
}

// CreateAprilGridService creates an aprilgrid service with the given camera and detector.
func CreateAprilGridService(
	t *testing.T,
	cfg *agConfig.Config,
	logger logging.Logger,
	imageSource s.TimedImageSource,
	detector detection.Detector,
) (*viamaprilgrid.AprilGridService, error) {
	t.Helper()

	ctx := context.Background()
	cfgService := resource.Config{Name: "test", API: generic.API, Model: viamaprilgrid.Model}
	cfgService.ConvertedAttributes = cfg

	deps, _, err := cfg.Validate("path")
	if err != nil {
		return nil, err
	}
	test.That(t, deps, test.ShouldResemble, []string{cfg.Camera})

	svc, err := viamaprilgrid.New(
		ctx,
		resource.Dependencies{},
		cfgService,
		logger,
		SensorValidationMaxTimeoutForTest,
		SensorValidationIntervalForTest,
		imageSource,
		detector,
	)
	if err != nil {
		test.That(t, svc, test.ShouldBeNil)
		return nil, err
	}

	test.That(t, svc, test.ShouldNotBeNil)
	return svc, nil
}
