// Package sensors_test implements tests for sensors
package sensors_test

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/test"

	s "github.com/viam-modules/viam-aprilgrid/sensors"
	"github.com/viam-modules/viam-aprilgrid/sensors/inject"
)

var errInvalidCamera = errors.New("invalid test camera")

func colorFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func goodSource(t *testing.T, img image.Image, capturedAt time.Time) *inject.ImagesSource {
	t.Helper()
	named, err := camera.NamedImageFromImage(img, "color", "")
	test.That(t, err, test.ShouldBeNil)
	return &inject.ImagesSource{
		ImagesFunc: func(ctx context.Context, _ []string, _ map[string]interface{}) (
			[]camera.NamedImage, resource.ResponseMetadata, error,
		) {
			return []camera.NamedImage{named}, resource.ResponseMetadata{CapturedAt: capturedAt}, nil
		},
	}
}

func TestTimedImage(t *testing.T) {
	ctx := context.Background()

	t.Run("converts the first frame to grayscale", func(t *testing.T) {
		capturedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		cam := s.NewCameraFromSource("good_camera", goodSource(t, colorFrame(), capturedAt))
		test.That(t, cam.Name(), test.ShouldEqual, "good_camera")

		resp, err := cam.TimedImage(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, resp.ReadingTime, test.ShouldEqual, capturedAt)
		test.That(t, resp.Image.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 3))
		test.That(t, resp.Image.GrayAt(1, 1).Y, test.ShouldEqual, 255)
		test.That(t, resp.Image.GrayAt(0, 0).Y, test.ShouldEqual, 0)
	})

	t.Run("passes a gray frame through untouched", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 2, 2))
		gray.SetGray(0, 1, color.Gray{Y: 42})
		cam := s.NewCameraFromSource("gray_camera", goodSource(t, gray, time.Time{}))

		before := time.Now().UTC()
		resp, err := cam.TimedImage(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, resp.Image, test.ShouldEqual, gray)
		test.That(t, resp.ReadingTime.Before(before), test.ShouldBeFalse)
	})

	t.Run("when the camera returns an error, returns that error", func(t *testing.T) {
		cam := s.NewCameraFromSource("bad_camera", &inject.ImagesSource{
			ImagesFunc: func(ctx context.Context, _ []string, _ map[string]interface{}) (
				[]camera.NamedImage, resource.ResponseMetadata, error,
			) {
				return nil, resource.ResponseMetadata{}, errInvalidCamera
			},
		})
		resp, err := cam.TimedImage(ctx)
		test.That(t, err, test.ShouldBeError, errors.New("Images error: invalid test camera"))
		test.That(t, resp, test.ShouldResemble, s.TimedImageResponse{})
	})

	t.Run("when the camera returns no frames, returns an error", func(t *testing.T) {
		cam := s.NewCameraFromSource("empty_camera", &inject.ImagesSource{})
		_, err := cam.TimedImage(ctx)
		test.That(t, err, test.ShouldBeError, s.ErrNoImages)
	})
}

func TestNewCamera(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("Failed camera creation with non-existing camera", func(t *testing.T) {
		_, err := s.NewCamera(context.Background(), resource.Dependencies{}, "gibberish_camera", logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring,
			"error getting camera gibberish_camera for aprilgrid service")
	})
}

func TestValidateGetImage(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	sensorValidationMaxTimeout := time.Duration(50) * time.Millisecond
	sensorValidationInterval := time.Duration(10) * time.Millisecond

	goodCamera := &inject.TimedImageSource{
		NameFunc: func() string { return "good_camera" },
		TimedImageFunc: func(ctx context.Context) (s.TimedImageResponse, error) {
			return s.TimedImageResponse{Image: image.NewGray(image.Rect(0, 0, 1, 1))}, nil
		},
	}
	invalidCamera := &inject.TimedImageSource{
		NameFunc: func() string { return "invalid_camera" },
		TimedImageFunc: func(ctx context.Context) (s.TimedImageResponse, error) {
			return s.TimedImageResponse{}, errInvalidCamera
		},
	}
	warmingUpCamera := func() *inject.TimedImageSource {
		calls := 0
		return &inject.TimedImageSource{
			NameFunc: func() string { return "warming_up_camera" },
			TimedImageFunc: func(ctx context.Context) (s.TimedImageResponse, error) {
				calls++
				if calls < 3 {
					return s.TimedImageResponse{}, errors.New("warming up")
				}
				return s.TimedImageResponse{Image: image.NewGray(image.Rect(0, 0, 1, 1))}, nil
			},
		}
	}

	t.Run("returns nil if a frame is read immediately", func(t *testing.T) {
		err := s.ValidateGetImage(ctx, goodCamera, sensorValidationMaxTimeout, sensorValidationInterval, logger)
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("returns nil if a frame is read within the timeout", func(t *testing.T) {
		err := s.ValidateGetImage(ctx, warmingUpCamera(), sensorValidationMaxTimeout, sensorValidationInterval, logger)
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("returns error if no frame is read within the timeout", func(t *testing.T) {
		err := s.ValidateGetImage(ctx, invalidCamera, sensorValidationMaxTimeout, sensorValidationInterval, logger)
		test.That(t, err, test.ShouldBeError, errors.New("ValidateGetImage timeout: invalid test camera"))
	})

	t.Run("returns error if no frame is read by the time the context is cancelled", func(t *testing.T) {
		cancelledCtx, cancelFunc := context.WithCancel(context.Background())
		cancelFunc()

		err := s.ValidateGetImage(cancelledCtx, warmingUpCamera(), sensorValidationMaxTimeout, sensorValidationInterval, logger)
		test.That(t, err, test.ShouldBeError, context.Canceled)
	})
}
