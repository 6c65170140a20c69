// Package inject provides dependency injected structures for mocking interfaces.
package inject

import (
	"context"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/resource"

	s "github.com/viam-modules/viam-aprilgrid/sensors"
)

// TimedImageSource is an injected TimedImageSource.
type TimedImageSource struct {
	s.Camera
	NameFunc       func() string
	TimedImageFunc func(ctx context.Context) (s.TimedImageResponse, error)
}

// Name calls the injected Name or the real version.
func (tis *TimedImageSource) Name() string {
	if tis.NameFunc == nil {
		return tis.Camera.Name()
	}
	return tis.NameFunc()
}

// TimedImage calls the injected TimedImage or the real version.
func (tis *TimedImageSource) TimedImage(ctx context.Context) (s.TimedImageResponse, error) {
	if tis.TimedImageFunc == nil {
		return tis.Camera.TimedImage(ctx)
	}
	return tis.TimedImageFunc(ctx)
}

// ImagesSource is an injected camera.ImagesSource.
type ImagesSource struct {
	ImagesFunc func(
		ctx context.Context,
		filterSourceNames []string,
		extra map[string]interface{},
	) ([]camera.NamedImage, resource.ResponseMetadata, error)
}

// Images calls the injected Images or returns no images.
func (is *ImagesSource) Images(
	ctx context.Context,
	filterSourceNames []string,
	extra map[string]interface{},
) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	if is.ImagesFunc == nil {
		return nil, resource.ResponseMetadata{}, nil
	}
	return is.ImagesFunc(ctx, filterSourceNames, extra)
}
