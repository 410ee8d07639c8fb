package observability

import (
	"time"

	"github.com/kbukum/httpconnector/validation"
)

// Metric exporters accepted by MetricsConfig.Exporter.
const (
	ExporterNone       = "none"
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
)

// Config selects telemetry exporters.
type Config struct {
	ServiceName    string        `yaml:"-" mapstructure:"-"`
	ServiceVersion string        `yaml:"-" mapstructure:"-"`
	Environment    string        `yaml:"-" mapstructure:"-"`
	Metrics        MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing        TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// MetricsConfig configures the meter provider.
type MetricsConfig struct {
	Exporter string `yaml:"exporter" mapstructure:"exporter"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Path is where the CLI mounts the Prometheus handler.
	Path string `yaml:"path" mapstructure:"path"`
}

// TracingConfig configures the tracer provider.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Metrics.Exporter == "" {
		c.Metrics.Exporter = ExporterPrometheus
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
}

// Validate checks exporter names and ranges.
func (c *Config) Validate() error {
	v := validation.New()
	v.OneOf("metrics.exporter", c.Metrics.Exporter, []string{ExporterNone, ExporterPrometheus, ExporterOTLP}).
		Check(c.Tracing.SampleRate >= 0 && c.Tracing.SampleRate <= 1, "tracing.sample_rate", "must be between 0 and 1")
	return v.Validate()
}
