// Package telemetry installs the OpenTelemetry meter provider the simulation
// loop records into.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/milk9111/flightrig/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const serviceName = "flightrig"

// Config selects the exporter. Extra readers passed to New are attached
// regardless of the exporter.
type Config struct {
	Exporter string
	Interval time.Duration
	// Writer receives stdout exports. Defaults to os.Stdout.
	Writer io.Writer
}

// Provider owns the SDK meter provider, or nothing when metrics are off.
type Provider struct {
	mp *sdkmetric.MeterProvider
}

func New(cfg Config, readers ...sdkmetric.Reader) (*Provider, error) {
	switch cfg.Exporter {
	case "", config.MetricsNone:
		if len(readers) == 0 {
			return &Provider{}, nil
		}
	case config.MetricsStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		interval := cfg.Interval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	return &Provider{mp: sdkmetric.NewMeterProvider(opts...)}, nil
}

// Enabled reports whether an SDK provider is behind p.
func (p *Provider) Enabled() bool { return p != nil && p.mp != nil }

// Install makes p the global meter provider. A disabled provider leaves the
// global no-op provider in place.
func (p *Provider) Install() {
	if p.Enabled() {
		otel.SetMeterProvider(p.mp)
	}
}

func (p *Provider) Meter(name string) metric.Meter {
	if !p.Enabled() {
		return noop.NewMeterProvider().Meter(name)
	}
	return p.mp.Meter(name)
}

// Shutdown flushes pending exports and stops the readers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down meter provider: %w", err)
	}
	return nil
}
