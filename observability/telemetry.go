package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/httpconnector/component"
)

// Telemetry is the lifecycle component owning the meter and tracer providers.
type Telemetry struct {
	cfg     Config
	mp      *sdkmetric.MeterProvider
	tp      *sdktrace.TracerProvider
	handler http.Handler
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates the telemetry component. Prometheus providers are
// built immediately so the scrape handler can be mounted before Start.
func NewTelemetry(cfg Config) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Telemetry{cfg: cfg}
	if strings.EqualFold(cfg.Metrics.Exporter, ExporterPrometheus) {
		mp, handler, err := InitPrometheus(cfg)
		if err != nil {
			return nil, err
		}
		t.mp, t.handler = mp, handler
	}
	return t, nil
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Handler returns the Prometheus scrape handler, or nil for other exporters.
func (t *Telemetry) Handler() http.Handler { return t.handler }

// MetricsPath is where the scrape handler should be mounted.
func (t *Telemetry) MetricsPath() string { return t.cfg.Metrics.Path }

// Start initializes the OTLP providers selected by the config.
func (t *Telemetry) Start(ctx context.Context) error {
	if strings.EqualFold(t.cfg.Metrics.Exporter, ExporterOTLP) && t.mp == nil {
		mp, err := InitMeter(ctx, t.cfg)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		t.mp = mp
	}
	if t.cfg.Tracing.Enabled && t.tp == nil {
		tp, err := InitTracer(ctx, t.cfg)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		t.tp = tp
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(ctx context.Context) component.Health {
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	return component.Description{
		Type:    "telemetry",
		Details: fmt.Sprintf("metrics=%s tracing=%v", t.cfg.Metrics.Exporter, t.cfg.Tracing.Enabled),
	}
}
