package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConnectorMetrics holds the connector's metric instruments.
type ConnectorMetrics struct {
	sends           metric.Int64Counter
	retries         metric.Int64Counter
	sendDuration    metric.Float64Histogram
	activeShared    metric.Int64UpDownCounter
	sharedStarts    metric.Int64Counter
	sharedStops     metric.Int64Counter
}

// NewConnectorMetrics creates the connector instruments on meter.
func NewConnectorMetrics(meter metric.Meter) (*ConnectorMetrics, error) {
	m := &ConnectorMetrics{}
	var err error

	if m.sends, err = meter.Int64Counter("httpconnector.requests.sent",
		metric.WithDescription("Requests completed by requester clients"),
	); err != nil {
		return nil, fmt.Errorf("creating requests.sent counter: %w", err)
	}
	if m.retries, err = meter.Int64Counter("httpconnector.requests.retries",
		metric.WithDescription("Authentication retries issued"),
	); err != nil {
		return nil, fmt.Errorf("creating requests.retries counter: %w", err)
	}
	if m.sendDuration, err = meter.Float64Histogram("httpconnector.request.duration",
		metric.WithDescription("Duration of requester sends including any retry"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating request.duration histogram: %w", err)
	}
	if m.activeShared, err = meter.Int64UpDownCounter("httpconnector.shared.active",
		metric.WithDescription("Shared resources currently started, by kind"),
	); err != nil {
		return nil, fmt.Errorf("creating shared.active counter: %w", err)
	}
	if m.sharedStarts, err = meter.Int64Counter("httpconnector.shared.starts",
		metric.WithDescription("Shared resource starts, by kind"),
	); err != nil {
		return nil, fmt.Errorf("creating shared.starts counter: %w", err)
	}
	if m.sharedStops, err = meter.Int64Counter("httpconnector.shared.stops",
		metric.WithDescription("Shared resource stops, by kind"),
	); err != nil {
		return nil, fmt.Errorf("creating shared.stops counter: %w", err)
	}
	return m, nil
}

var (
	defaultMetrics     *ConnectorMetrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns instruments on the global meter provider. They
// delegate to whatever provider InitMeter or InitPrometheus installs later.
// Returns nil if the instruments cannot be created; all methods accept a
// nil receiver.
func DefaultMetrics() *ConnectorMetrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, _ = NewConnectorMetrics(Meter(instrumentationName))
	})
	return defaultMetrics
}

// RecordSend records one completed send. status is 0 when no response arrived.
func (m *ConnectorMetrics) RecordSend(ctx context.Context, client, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if status > 0 {
		outcome = strconv.Itoa(status)
	}
	m.sends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
		attribute.String("status", outcome),
	))
	m.sendDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
	))
}

// RecordRetry records an authentication retry.
func (m *ConnectorMetrics) RecordRetry(ctx context.Context, client, strategy string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("strategy", strategy),
	))
}

// ResourceStarted records a shared resource start. kind separates
// transports from servers.
func (m *ConnectorMetrics) ResourceStarted(ctx context.Context, kind, key string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("key", key))
	m.sharedStarts.Add(ctx, 1, attrs)
	m.activeShared.Add(ctx, 1, attrs)
}

// ResourceStopped records a shared resource stop.
func (m *ConnectorMetrics) ResourceStopped(ctx context.Context, kind, key string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("key", key))
	m.sharedStops.Add(ctx, 1, attrs)
	m.activeShared.Add(ctx, -1, attrs)
}
