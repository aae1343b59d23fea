// Package telemetry wires optional OpenTelemetry metrics with a Prometheus
// exporter. When telemetry is disabled, callers get no-op implementations so
// the rest of the code never has to branch on whether metrics are enabled.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config holds the configuration for initializing telemetry.
type Config struct {
	ServiceName string
	Enabled     bool
}

// Providers bundles the OpenTelemetry providers created at startup.
type Providers struct {
	serviceName string
	enabled     bool

	meterProvider *sdkmetric.MeterProvider

	// Meter is the meter instruments should be created from.
	// It is nil when telemetry is disabled.
	Meter metric.Meter
}

// Init sets up the metrics pipeline. When c.Enabled is false it returns a
// Providers whose Shutdown is a no-op and whose Meter is nil.
func Init(_ context.Context, c *Config) (*Providers, error) {
	p := &Providers{serviceName: c.ServiceName}
	if !c.Enabled {
		return p, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	p.enabled = true
	p.meterProvider = mp
	p.Meter = mp.Meter(c.ServiceName)
	return p, nil
}

// Shutdown flushes and stops the meter provider, if one was created.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

// IsEnabled returns true if telemetry was enabled at startup.
func (p *Providers) IsEnabled() bool {
	return p.enabled
}

// ServiceName returns the service name telemetry was initialized with.
func (p *Providers) ServiceName() string {
	return p.serviceName
}
