// Package observability wires OpenTelemetry metrics and tracing for the
// connector.
//
// Metrics export either over OTLP/HTTP or through a Prometheus reader whose
// handler the CLI mounts on a listener:
//
//	mp, handler, err := observability.InitPrometheus(cfg)
//	metrics := observability.DefaultMetrics()
//	metrics.RecordSend(ctx, "billing", "GET", 200, elapsed)
//
// Send spans are started with StartSpan(ctx, SpanHTTPSend).
package observability
