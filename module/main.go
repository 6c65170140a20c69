// Package main is a module with an aprilgrid calibration target service model.
package main

import (
	"context"
	"strings"

	"go.uber.org/zap/zapcore"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/services/generic"
	"go.viam.com/utils"

	viamaprilgrid "github.com/viam-modules/viam-aprilgrid"
	"github.com/viam-modules/viam-aprilgrid/telemetry"
)

// Versioning variables which are replaced by LD flags.
var (
	Version     = "development"
	GitRevision = ""
)

func main() {
	utils.ContextualMain(mainWithArgs, module.NewLoggerFromArgs("aprilgridModule"))
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var versionFields []interface{}
	if Version != "" {
		versionFields = append(versionFields, "version", Version)
	}
	if GitRevision != "" {
		versionFields = append(versionFields, "git_rev", GitRevision)
	}
	if len(versionFields) != 0 {
		logger.Infow(viamaprilgrid.Model.String(), versionFields...)
	} else {
		logger.Info(viamaprilgrid.Model.String() + " built from source; version unknown")
	}

	if len(args) == 2 && strings.HasSuffix(args[1], "-version") {
		return nil
	}

	if logger.Level() == zapcore.DebugLevel {
		exporter, err := telemetry.SetupTelemetry(telemetry.DefaultReportingInterval)
		if err != nil {
			return err
		}
		defer exporter.Stop()
	}

	// Instantiate the module
	gridModule, err := module.NewModuleFromArgs(ctx)
	if err != nil {
		return err
	}

	// Add the aprilgrid model to the module
	if err = gridModule.AddModelFromRegistry(ctx, generic.API, viamaprilgrid.Model); err != nil {
		return err
	}

	// Start the module
	err = gridModule.Start(ctx)
	defer gridModule.Close(ctx)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
