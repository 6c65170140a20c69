package sensors

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/rimage"
)

// ErrNoImages denotes that the camera answered without a single frame.
var ErrNoImages = errors.New("no images returned from camera")

// Camera is a TimedImageSource backed by a camera component.
type Camera struct {
	name   string
	Camera camera.ImagesSource
}

// Name returns the name of the camera.
func (cam Camera) Name() string {
	return cam.name
}

// TimedImage returns the first frame of the camera converted to grayscale. The reading time is
// the capture time the camera reports, or now when it reports none.
func (cam Camera) TimedImage(ctx context.Context) (TimedImageResponse, error) {
	ctx, span := trace.StartSpan(ctx, "viamaprilgrid::sensors::TimedImage")
	defer span.End()

	namedImages, metadata, err := cam.Camera.Images(ctx, nil, nil)
	if err != nil {
		return TimedImageResponse{}, errors.Wrap(err, "Images error")
	}
	if len(namedImages) == 0 {
		return TimedImageResponse{}, ErrNoImages
	}
	img, err := namedImages[0].Image(ctx)
	if err != nil {
		return TimedImageResponse{}, errors.Wrap(err, "decoding image")
	}

	readingTime := metadata.CapturedAt
	if readingTime.IsZero() {
		readingTime = time.Now()
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = rimage.MakeGray(rimage.ConvertImage(img))
	}
	return TimedImageResponse{Image: gray, ReadingTime: readingTime.UTC()}, nil
}

// NewCamera returns a new Camera.
func NewCamera(
	ctx context.Context,
	deps resource.Dependencies,
	cameraName string,
	logger logging.Logger,
) (TimedImageSource, error) {
	_, span := trace.StartSpan(ctx, "viamaprilgrid::sensors::NewCamera")
	defer span.End()

	cam, err := camera.FromDependencies(deps, cameraName)
	if err != nil {
		return Camera{}, errors.Wrapf(err, "error getting camera %v for aprilgrid service", cameraName)
	}
	logger.Debugf("using camera %v as the frame source", cameraName)

	return NewCameraFromSource(cameraName, cam), nil
}

// NewCameraFromSource wraps any source of named images.
func NewCameraFromSource(name string, source camera.ImagesSource) Camera {
	return Camera{name: name, Camera: source}
}
