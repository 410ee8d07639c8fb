package transport

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/kbukum/httpconnector/security"
	"github.com/kbukum/httpconnector/validation"
)

// Settings is the configuration surface of one shared transport.
type Settings struct {
	// Name identifies the transport in logs and errors; the registry key.
	Name string `yaml:"-" mapstructure:"-"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
	// MaxConnections caps connections per host. Zero means unlimited.
	MaxConnections        int           `yaml:"max_connections" mapstructure:"max_connections" validate:"gte=0"`
	ConnectionIdleTimeout time.Duration `yaml:"connection_idle_timeout" mapstructure:"connection_idle_timeout" validate:"gte=0"`
	// UsePersistentConnections enables keep-alive. Nil means enabled.
	UsePersistentConnections *bool `yaml:"use_persistent_connections" mapstructure:"use_persistent_connections"`
	// Streaming leaves every response body unread unless the call says otherwise.
	Streaming bool `yaml:"streaming" mapstructure:"streaming"`
	// ResponseBufferSize sizes the socket read buffer and the initial buffer
	// for fully read responses.
	ResponseBufferSize int           `yaml:"response_buffer_size" mapstructure:"response_buffer_size" validate:"gte=0"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout" validate:"gte=0"`
	KeepAlive          time.Duration `yaml:"keep_alive" mapstructure:"keep_alive" validate:"gte=0"`
	Proxy              *ProxyConfig  `yaml:"proxy" mapstructure:"proxy"`
}

// ProxyConfig routes requests through an HTTP proxy.
type ProxyConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	// NonProxyHosts bypass the proxy. Entries follow NO_PROXY syntax:
	// "internal.example.com", "*.example.com", "10.0.0.0/8".
	NonProxyHosts []string `yaml:"non_proxy_hosts" mapstructure:"non_proxy_hosts"`
	Username      string   `yaml:"username" mapstructure:"username"`
	Password      string   `yaml:"password" mapstructure:"password"`
}

// Settings defaults.
const (
	DefaultConnectionIdleTimeout = 30 * time.Second
	DefaultResponseBufferSize    = 10 * 1024
	DefaultConnectTimeout        = 30 * time.Second
	DefaultKeepAlive             = 30 * time.Second
)

// DefaultSettings returns the settings a requester gets when it configures nothing.
func DefaultSettings(name string) Settings {
	s := Settings{Name: name}
	s.ApplyDefaults()
	return s
}

// Persistent reports whether connections are kept alive between requests.
func (s *Settings) Persistent() bool {
	return s.UsePersistentConnections == nil || *s.UsePersistentConnections
}

// ApplyDefaults fills zero durations and sizes.
func (s *Settings) ApplyDefaults() {
	if s.ConnectionIdleTimeout == 0 {
		s.ConnectionIdleTimeout = DefaultConnectionIdleTimeout
	}
	if s.ResponseBufferSize == 0 {
		s.ResponseBufferSize = DefaultResponseBufferSize
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = DefaultConnectTimeout
	}
	if s.KeepAlive == 0 {
		s.KeepAlive = DefaultKeepAlive
	}
}

// Validate checks ranges and cross-field rules.
func (s *Settings) Validate() error {
	v := validation.New()
	v.Merge("client", validation.Validate(s))
	if s.TLS != nil {
		v.Merge("tls", s.TLS.Validate())
	}
	if p := s.Proxy; p != nil && p.Host != "" {
		v.Check(p.Port > 0, "proxy.port", "is required when proxy.host is set").
			Check(p.Password == "" || p.Username != "", "proxy.username", "is required when proxy.password is set")
	}
	return v.Validate()
}

// proxyFunc returns the http.Transport proxy selector, or nil for direct
// connections. Loopback destinations are never proxied.
func (p *ProxyConfig) proxyFunc() func(*http.Request) (*url.URL, error) {
	if p == nil || p.Host == "" {
		return nil
	}
	proxyURL := &url.URL{Scheme: "http", Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
	if p.Username != "" {
		proxyURL.User = url.UserPassword(p.Username, p.Password)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    strings.Join(p.NonProxyHosts, ","),
	}
	selector := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return selector(req.URL)
	}
}
