package listener

import (
	"strings"
	"time"

	"github.com/kbukum/httpconnector/listener/middleware"
	"github.com/kbukum/httpconnector/security"
	"github.com/kbukum/httpconnector/validation"
)

// Defaults.
const (
	DefaultPort         = 8081
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// Config configures one listener and, for the first listener naming a
// server, that server.
type Config struct {
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Server is the shared server name. Defaults to Name.
	Server   string `yaml:"server" mapstructure:"server"`
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	Host         string                 `yaml:"host" mapstructure:"host"`
	Port         int                    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	TLS          *security.TLSConfig    `yaml:"tls" mapstructure:"tls" validate:"-"`
	ReadTimeout  time.Duration          `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration          `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration          `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
	CORS         *middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server == "" {
		c.Server = c.Name
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", validation.Validate(c))
	if c.TLS.IsEnabled() {
		v.Merge("tls", c.TLS.Validate())
		v.Check(c.TLS.CertFile != "" && c.TLS.KeyFile != "", "tls", "cert_file and key_file are required")
	}
	return v.Validate()
}

func (c *Config) settings() ServerSettings {
	return ServerSettings{
		Host:         c.Host,
		Port:         c.Port,
		TLS:          c.TLS,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
		CORS:         c.CORS,
	}
}
