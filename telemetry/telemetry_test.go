package telemetry

import (
	"testing"

	"go.viam.com/test"
)

func TestSetupTelemetry(t *testing.T) {
	exporter, err := SetupTelemetry(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, exporter, test.ShouldNotBeNil)
	exporter.Stop()
}
