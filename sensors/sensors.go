// Package sensors defines the image sources used by the aprilgrid service.
package sensors

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.viam.com/rdk/logging"
	goutils "go.viam.com/utils"
)

// TimedImageResponse is a grayscale frame together with the time it was captured.
type TimedImageResponse struct {
	Image       *image.Gray
	ReadingTime time.Time
}

// TimedImageSource describes a camera that reports the time each frame is from.
type TimedImageSource interface {
	Name() string
	TimedImage(ctx context.Context) (TimedImageResponse, error)
}

// ValidateGetImage checks every sensorValidationInterval if the provided source
// returned a valid frame until either success or sensorValidationMaxTimeout has elapsed.
// returns an error if no valid frame was returned.
func ValidateGetImage(
	ctx context.Context,
	source TimedImageSource,
	sensorValidationMaxTimeout time.Duration,
	sensorValidationInterval time.Duration,
	logger logging.Logger,
) error {
	ctx, span := trace.StartSpan(ctx, "viamaprilgrid::sensors::ValidateGetImage")
	defer span.End()

	startTime := time.Now().UTC()

	for {
		_, err := source.TimedImage(ctx)
		if err == nil {
			break
		}

		logger.Debugw("ValidateGetImage hit error: ", "camera", source.Name(), "error", err)
		if time.Since(startTime) >= sensorValidationMaxTimeout {
			return errors.Wrap(err, "ValidateGetImage timeout")
		}
		if !goutils.SelectContextOrWait(ctx, sensorValidationInterval) {
			return ctx.Err()
		}
	}

	return nil
}
