// Package telemetry provides setup for reporting extraction spans and stats.
package telemetry

import (
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils/perf"
)

// DefaultReportingInterval is how often the development exporter prints collected spans.
const DefaultReportingInterval = time.Second

// SetupTelemetry starts a development exporter so the viamaprilgrid spans and stats are reported.
// A non-positive interval selects DefaultReportingInterval. Callers stop the returned exporter.
func SetupTelemetry(interval time.Duration) (perf.Exporter, error) {
	if interval <= 0 {
		interval = DefaultReportingInterval
	}
	exporter := perf.NewDevelopmentExporterWithOptions(perf.DevelopmentExporterOptions{
		ReportingInterval: interval,
	})
	if err := exporter.Start(); err != nil {
		return nil, errors.Wrap(err, "starting telemetry exporter")
	}

	return exporter, nil
}
