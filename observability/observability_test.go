package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: unexpected data type %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestConnectorMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewConnectorMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewConnectorMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordSend(ctx, "billing", "GET", 200, 10*time.Millisecond)
	m.RecordSend(ctx, "billing", "GET", 0, time.Millisecond)
	m.RecordRetry(ctx, "billing", "digest")
	m.ResourceStarted(ctx, "transports", "billing")
	m.ResourceStarted(ctx, "servers", "orders")
	m.ResourceStopped(ctx, "servers", "orders")

	got := collect(t, reader)
	tests := []struct {
		name string
		want int64
	}{
		{"httpconnector.requests.sent", 2},
		{"httpconnector.requests.retries", 1},
		{"httpconnector.shared.starts", 2},
		{"httpconnector.shared.stops", 1},
		{"httpconnector.shared.active", 1},
	}
	for _, tt := range tests {
		metric, ok := got[tt.name]
		if !ok {
			t.Errorf("metric %s not recorded", tt.name)
			continue
		}
		if v := sumInt(t, metric); v != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, v, tt.want)
		}
	}
	if _, ok := got["httpconnector.request.duration"]; !ok {
		t.Error("duration histogram not recorded")
	}
}

func TestConnectorMetrics_NilReceiver(t *testing.T) {
	var m *ConnectorMetrics
	ctx := context.Background()
	m.RecordSend(ctx, "a", "GET", 200, time.Second)
	m.RecordRetry(ctx, "a", "basic")
	m.ResourceStarted(ctx, "transports", "a")
	m.ResourceStopped(ctx, "transports", "a")
}

func TestEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, succeeded := tracer.Start(context.Background(), SpanHTTPSend)
	EndSpan(succeeded, 200, nil)
	_, failed := tracer.Start(context.Background(), SpanHTTPSend)
	EndSpan(failed, 0, errors.New("refused"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("successful span marked as error")
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("failed span not marked as error")
	}
	if len(spans[1].Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Metrics.Exporter != ExporterPrometheus || cfg.Metrics.Path != "/metrics" {
		t.Errorf("unexpected defaults: %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Metrics.Exporter = "statsd"
	cfg.Tracing.SampleRate = 2
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"metrics.exporter", "tracing.sample_rate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestTelemetry_PrometheusHandler(t *testing.T) {
	tel, err := NewTelemetry(Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = tel.Stop(ctx) }()

	m, err := NewConnectorMetrics(Meter("scrape-test"))
	if err != nil {
		t.Fatalf("NewConnectorMetrics: %v", err)
	}
	m.RecordRetry(ctx, "billing", "basic")

	if tel.Handler() == nil {
		t.Fatal("expected prometheus handler")
	}
	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "httpconnector_requests_retries") {
		t.Errorf("scrape output missing retry counter:\n%s", body)
	}
}

func TestTelemetry_NoExporter(t *testing.T) {
	tel, err := NewTelemetry(Config{Metrics: MetricsConfig{Exporter: ExporterNone}})
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	if tel.Handler() != nil {
		t.Error("expected no handler")
	}
	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestTelemetry_EmptyConfig(t *testing.T) {
	tel, err := NewTelemetry(Config{})
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	if tel.Handler() == nil {
		t.Fatal("expected prometheus handler by default")
	}
	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNewResource(t *testing.T) {
	cfg := Config{ServiceName: "billing", Environment: "test"}
	cfg.ApplyDefaults()
	res, err := newResource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	want := map[string]string{
		"service.name":           "billing",
		"service.version":        "dev",
		"environment":            "test",
		"telemetry.sdk.language": "go",
	}
	for key, val := range want {
		got, ok := res.Set().Value(attribute.Key(key))
		if !ok || got.AsString() != val {
			t.Errorf("%s = %q, want %q", key, got.AsString(), val)
		}
	}
}
