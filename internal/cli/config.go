package cli

import (
	"fmt"

	"github.com/kbukum/httpconnector/config"
	"github.com/kbukum/httpconnector/listener"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/requester"
	"github.com/kbukum/httpconnector/validation"
	"github.com/kbukum/httpconnector/version"
)

// ConnectorConfig is the file loaded by the serve and check commands.
//
//	name: orders-connector
//	listeners:
//	  - name: api
//	    port: 8081
//	requesters:
//	  - name: billing
//	    base_uri: {scheme: https, host: billing.internal}
//	    auth: {type: basic, username: svc, password: secret}
type ConnectorConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Artifact scopes the shared client keys. Defaults to Name.
	Artifact  string               `yaml:"artifact" mapstructure:"artifact"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	// HealthListener names the listener serving /health and the metrics
	// handler. Defaults to the first listener.
	HealthListener string             `yaml:"health_listener" mapstructure:"health_listener"`
	Listeners      []listener.Config  `yaml:"listeners" mapstructure:"listeners"`
	Requesters     []requester.Config `yaml:"requesters" mapstructure:"requesters"`
}

// ApplyDefaults fills unset fields of the connector and every entry.
func (c *ConnectorConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Artifact == "" {
		c.Artifact = c.Name
	}
	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
	c.Telemetry.ApplyDefaults()
	if c.HealthListener == "" && len(c.Listeners) > 0 {
		c.HealthListener = c.Listeners[0].Name
	}
	for i := range c.Listeners {
		c.Listeners[i].ApplyDefaults()
	}
	for i := range c.Requesters {
		c.Requesters[i].ApplyDefaults()
	}
}

// Validate checks the connector configuration. Names must be unique within
// their kind.
func (c *ConnectorConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	v := validation.New()
	v.Merge("telemetry", c.Telemetry.Validate())

	listeners := map[string]bool{}
	for i := range c.Listeners {
		l := &c.Listeners[i]
		field := fmt.Sprintf("listeners[%d]", i)
		v.Merge(field, l.Validate())
		v.Check(!listeners[l.Name], field+".name", "duplicate listener "+l.Name)
		listeners[l.Name] = true
	}
	if c.HealthListener != "" {
		v.Check(listeners[c.HealthListener], "health_listener", "unknown listener "+c.HealthListener)
	}

	requesters := map[string]bool{}
	for i := range c.Requesters {
		r := &c.Requesters[i]
		field := fmt.Sprintf("requesters[%d]", i)
		v.Merge(field, r.Validate())
		v.Check(!requesters[r.Name], field+".name", "duplicate requester "+r.Name)
		requesters[r.Name] = true
	}
	return v.Validate()
}

// LoadConfig reads path, or the standard locations when path is empty,
// overlaid with HTTPCONNECTOR_ environment variables.
func LoadConfig(path string) (*ConnectorConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &ConnectorConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
