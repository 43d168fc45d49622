package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/pkg/config"
)

func TestSetup_None(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Name: "taller-test"}, Telemetry: config.TelemetryConfig{Exporter: "none"}}
	shutdown, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

func TestSetup_ExportadorDesconocido(t *testing.T) {
	cfg := &config.Config{Telemetry: config.TelemetryConfig{Exporter: "zipkin"}}
	_, err := Setup(context.Background(), cfg)
	assert.Error(t, err)
}
