// Package viamaprilgrid implements an aprilgrid calibration target service that extracts
// grid-aligned corner observations from camera frames.
package viamaprilgrid

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/services/generic"

	"github.com/viam-modules/viam-aprilgrid/commands"
	agConfig "github.com/viam-modules/viam-aprilgrid/config"
	"github.com/viam-modules/viam-aprilgrid/debugsink"
	"github.com/viam-modules/viam-aprilgrid/detection"
	"github.com/viam-modules/viam-aprilgrid/grid"
	"github.com/viam-modules/viam-aprilgrid/observation"
	s "github.com/viam-modules/viam-aprilgrid/sensors"
)

// Model is the model name of the aprilgrid service.
var (
	Model = resource.NewModel("viam", "calibration", "aprilgrid")
	// ErrClosed denotes that the aprilgrid service method was called on a closed resource.
	ErrClosed = errors.Errorf("resource (%s) is closed", Model.String())
)

const (
	defaultSensorValidationMaxTimeout = 30 * time.Second
	defaultSensorValidationInterval   = time.Second
)

func init() {
	resource.RegisterService(generic.API, Model, resource.Registration[resource.Resource, *agConfig.Config]{
		Constructor: func(
			ctx context.Context,
			deps resource.Dependencies,
			c resource.Config,
			logger logging.Logger,
		) (resource.Resource, error) {
			svc, err := New(
				ctx,
				deps,
				c,
				logger,
				defaultSensorValidationMaxTimeout,
				defaultSensorValidationInterval,
				nil,
				nil,
			)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	})
}

// New returns a new aprilgrid service for the given robot. The test overrides replace the
// configured camera and the marker detector when not nil.
func New(
	ctx context.Context,
	deps resource.Dependencies,
	c resource.Config,
	logger logging.Logger,
	sensorValidationMaxTimeout time.Duration,
	sensorValidationInterval time.Duration,
	testImageSourceOverride s.TimedImageSource,
	testDetectorOverride detection.Detector,
) (*AprilGridService, error) {
	ctx, span := trace.StartSpan(ctx, "viamaprilgrid::AprilGridService::New")
	defer span.End()

	svcConfig, err := resource.NativeConfig[*agConfig.Config](c)
	if err != nil {
		return nil, err
	}

	opts, err := agConfig.GetOptionalParameters(svcConfig, logger)
	if err != nil {
		return nil, err
	}

	topology, err := grid.New(svcConfig.TagRows, svcConfig.TagCols, svcConfig.TagSizeMeters, svcConfig.TagSpacing())
	if err != nil {
		return nil, errors.Wrap(err, "invalid aprilgrid target")
	}
	logger.Debugf("aprilgrid target of %dx%d tags, %d corners", topology.TagRows(), topology.TagCols(), topology.Size())

	// Override the camera for testing if the override is not nil
	imageSource := testImageSourceOverride
	if imageSource == nil {
		if imageSource, err = s.NewCamera(ctx, deps, svcConfig.Camera, logger); err != nil {
			return nil, err
		}
	}

	detector := testDetectorOverride
	if detector == nil {
		if detector, err = detection.NewDefaultDetector(opts.BlackTagBorder); err != nil {
			return nil, err
		}
	}

	var assemblerOptions []observation.AssemblerOption
	if opts.ShowExtractionVideo {
		assemblerOptions = append(assemblerOptions,
			observation.WithDebugSink(debugsink.NewFileSink(svcConfig.DebugDirectory, svcConfig.Camera, logger)))
	}

	assembler, err := observation.NewAssembler(
		topology,
		detector,
		detection.NewDefaultRefiner(),
		opts,
		logger,
		assemblerOptions...,
	)
	if err != nil {
		return nil, err
	}

	svc := &AprilGridService{
		Named:     c.ResourceName().AsNamed(),
		camera:    imageSource,
		detector:  detector,
		assembler: assembler,
		logger:    logger,
	}

	if err = s.ValidateGetImage(
		ctx,
		imageSource,
		sensorValidationMaxTimeout,
		sensorValidationInterval,
		logger); err != nil {
		err = errors.Wrap(err, "failed to get frames from camera")
		logger.Errorw("New() hit error, closing...", "error", err)
		if err := svc.Close(ctx); err != nil {
			logger.Errorw("error closing out after error", "error", err)
		}
		return nil, err
	}

	return svc, nil
}

// AprilGridService is the structure of the aprilgrid service.
type AprilGridService struct {
	resource.Named
	resource.AlwaysRebuild
	mu        sync.Mutex
	closed    bool
	camera    s.TimedImageSource
	detector  detection.Detector
	assembler *observation.Assembler
	logger    logging.Logger
}

// Topology returns the calibration target the service extracts.
func (svc *AprilGridService) Topology() *grid.Topology {
	return svc.assembler.Topology()
}

// ComputeObservation reads a frame from the camera and extracts an observation of the target.
func (svc *AprilGridService) ComputeObservation(ctx context.Context) (observation.Observation, bool, error) {
	ctx, span := trace.StartSpan(ctx, "viamaprilgrid::AprilGridService::ComputeObservation")
	defer span.End()

	if svc.isClosed() {
		svc.logger.Warn("ComputeObservation called after closed")
		return observation.Observation{}, false, ErrClosed
	}

	frame, err := svc.camera.TimedImage(ctx)
	if err != nil {
		return observation.Observation{}, false, errors.Wrapf(err, "reading frame from %s", svc.camera.Name())
	}
	return svc.assembler.ComputeObservation(frame.Image)
}

// DoCommand receives the aprilgrid commands.
func (svc *AprilGridService) DoCommand(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	ctx, span := trace.StartSpan(ctx, "viamaprilgrid::AprilGridService::DoCommand")
	defer span.End()

	if svc.isClosed() {
		svc.logger.Warn("DoCommand called after closed")
		return nil, ErrClosed
	}

	cmd, err := commands.ParseDoCommand(req)
	if err != nil {
		return nil, err
	}

	topology := svc.assembler.Topology()
	switch cmd.Kind {
	case commands.ComputeObservation:
		return svc.computeObservationCommand(ctx)
	case commands.GridPoints:
		return map[string]interface{}{
			"rows":   topology.Rows(),
			"cols":   topology.Cols(),
			"points": commands.ObjectPoints(topology.Points()),
		}, nil
	case commands.IndexToGrid:
		row, col, err := topology.IndexToGrid(cmd.Index)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"row": row, "col": col}, nil
	case commands.GridToIndex:
		index, err := topology.GridToIndex(cmd.Row, cmd.Col)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"index": index}, nil
	default:
		return nil, commands.ErrUnknownCommand
	}
}

func (svc *AprilGridService) computeObservationCommand(ctx context.Context) (map[string]interface{}, error) {
	obs, success, err := svc.ComputeObservation(ctx)
	if err != nil {
		return nil, err
	}
	objectPoints, imagePoints, err := svc.assembler.Correspondences(obs)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"success":               success,
		"observed":              commands.Flags(obs.Observed),
		"image_points":          commands.ImagePoints(obs.ImagePoints),
		"object_points":         commands.ObjectPoints(objectPoints),
		"image_correspondences": commands.ImagePoints(imagePoints),
		"summary":               summaryToMap(obs.Summary),
	}, nil
}

func summaryToMap(summary observation.Summary) map[string]interface{} {
	return map[string]interface{}{
		"detected":                  summary.Detected,
		"rejected_border":           summary.RejectedBorder,
		"rejected_quality":          summary.RejectedQuality,
		"rejected_range":            summary.RejectedRange,
		"accepted":                  summary.Accepted,
		"rejected_corners":          summary.RejectedCorners,
		"mean_displacement_squared": summary.MeanDisplacement2,
		"max_displacement_squared":  summary.MaxDisplacement2,
	}
}

func (svc *AprilGridService) isClosed() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.closed
}

// Close releases the marker detector.
func (svc *AprilGridService) Close(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.closed {
		svc.logger.Warn("Close() called multiple times")
		return nil
	}
	svc.logger.Info("Closing aprilgrid module")

	var err error
	if closer, ok := svc.detector.(interface{ Close() error }); ok {
		if err = closer.Close(); err != nil {
			svc.logger.Errorw("close hit error", "error", err)
		}
	}
	svc.closed = true

	svc.logger.Info("Closing complete")
	return err
}
