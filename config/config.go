// Package config implements functions to assist with attribute evaluation in the aprilgrid service.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"go.viam.com/utils"

	"github.com/viam-modules/viam-aprilgrid/observation"
)

// newError returns an error specific to a failure in the aprilgrid config.
func newError(configError string) error {
	return errors.Errorf("aprilgrid service configuration error: %s", configError)
}

// Config describes how to configure the aprilgrid service.
type Config struct {
	Camera          string   `json:"camera"`
	TagRows         int      `json:"tag_rows"`
	TagCols         int      `json:"tag_cols"`
	TagSizeMeters   float64  `json:"tag_size_m"`
	TagSpacingRatio *float64 `json:"tag_spacing_ratio"`

	MinBorderDistancePx          *float64 `json:"min_border_distance_px,omitempty"`
	MinTagsForValidObs           *int     `json:"min_tags_for_valid_obs,omitempty"`
	DoSubpixRefinement           *bool    `json:"do_subpix_refinement,omitempty"`
	MaxSubpixDisplacementSquared *float64 `json:"max_subpix_displacement_squared,omitempty"`
	ShowExtractionVideo          bool     `json:"show_extraction_video,omitempty"`
	BlackTagBorder               *int     `json:"black_tag_border,omitempty"`
	DebugDirectory               string   `json:"debug_dir,omitempty"`
}

// Validate creates the list of implicit dependencies. Every invalid field is reported.
func (config *Config) Validate(path string) ([]string, []string, error) {
	var errs error

	if config.Camera == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "camera"))
	}
	if config.TagRows <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("tag_rows must be greater than zero")))
	}
	if config.TagCols <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("tag_cols must be greater than zero")))
	}
	if config.TagSizeMeters <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("tag_size_m must be greater than zero")))
	}
	if config.TagSpacingRatio == nil {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "tag_spacing_ratio"))
	} else if *config.TagSpacingRatio < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("cannot specify tag_spacing_ratio less than zero")))
	}

	if config.MinBorderDistancePx != nil && *config.MinBorderDistancePx < 0 {
		errs = multierr.Append(errs, errors.New("cannot specify min_border_distance_px less than zero"))
	}
	if config.MinTagsForValidObs != nil && *config.MinTagsForValidObs < 0 {
		errs = multierr.Append(errs, errors.New("cannot specify min_tags_for_valid_obs less than zero"))
	}
	if config.MaxSubpixDisplacementSquared != nil && *config.MaxSubpixDisplacementSquared < 0 {
		errs = multierr.Append(errs, errors.New("cannot specify max_subpix_displacement_squared less than zero"))
	}
	if config.BlackTagBorder != nil && *config.BlackTagBorder < 0 {
		errs = multierr.Append(errs, errors.New("cannot specify black_tag_border less than zero"))
	}
	if config.ShowExtractionVideo && config.DebugDirectory == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "debug_dir"))
	}

	if errs != nil {
		return nil, nil, errs
	}
	return []string{config.Camera}, nil, nil
}

// GetOptionalParameters sets any unset optional config parameters to their defaults and
// returns the resulting extraction options.
func GetOptionalParameters(config *Config, logger logging.Logger) (observation.Options, error) {
	opts := observation.DefaultOptions()

	if config.MinBorderDistancePx == nil {
		logger.Debugf("no min_border_distance_px given, setting to default value of %.1f", opts.MinBorderDistance)
	} else {
		opts.MinBorderDistance = *config.MinBorderDistancePx
	}

	if config.MinTagsForValidObs == nil {
		logger.Debugf("no min_tags_for_valid_obs given, setting to default value of %d", opts.MinTagsForValidObs)
	} else {
		opts.MinTagsForValidObs = *config.MinTagsForValidObs
	}

	if config.DoSubpixRefinement == nil {
		logger.Debugf("no do_subpix_refinement given, setting to default value of %t", opts.DoSubpixRefinement)
	} else {
		opts.DoSubpixRefinement = *config.DoSubpixRefinement
	}

	if config.MaxSubpixDisplacementSquared == nil {
		logger.Debugf("no max_subpix_displacement_squared given, setting to default value of %.1f",
			opts.MaxSubpixDisplacementSquared)
	} else {
		opts.MaxSubpixDisplacementSquared = *config.MaxSubpixDisplacementSquared
	}

	if config.BlackTagBorder == nil {
		logger.Debugf("no black_tag_border given, setting to default value of %d", opts.BlackTagBorder)
	} else {
		opts.BlackTagBorder = *config.BlackTagBorder
	}

	opts.ShowExtractionVideo = config.ShowExtractionVideo
	if opts.ShowExtractionVideo {
		logger.Infof("writing extraction frames to %s", config.DebugDirectory)
	}

	if err := opts.Validate(); err != nil {
		return observation.Options{}, newError(err.Error())
	}
	return opts, nil
}

// TagSpacing returns the configured spacing ratio, zero when unset.
func (config *Config) TagSpacing() float64 {
	if config.TagSpacingRatio == nil {
		return 0
	}
	return *config.TagSpacingRatio
}
