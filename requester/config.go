package requester

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/transport"
	"github.com/kbukum/httpconnector/validation"
)

// RetryTimeout selects the response timeout of the authentication retry.
type RetryTimeout string

const (
	// RetryTimeoutFresh gives the retry the full response timeout.
	RetryTimeoutFresh RetryTimeout = "FRESH"
	// RetryTimeoutRemaining gives the retry what the first attempt left unused.
	RetryTimeoutRemaining RetryTimeout = "REMAINING"
)

// ParseRetryTimeout accepts FRESH or REMAINING in any case. Empty is FRESH.
func ParseRetryTimeout(s string) (RetryTimeout, error) {
	switch p := RetryTimeout(strings.ToUpper(s)); p {
	case "":
		return RetryTimeoutFresh, nil
	case RetryTimeoutFresh, RetryTimeoutRemaining:
		return p, nil
	default:
		return "", fmt.Errorf("requester: unknown retry timeout policy %q", s)
	}
}

// Defaults.
const (
	DefaultResponseTimeout = 30 * time.Second
	DefaultScheme          = "http"
)

// URIParams are the fallback scheme, host, port and path of requests that
// do not carry an absolute URL.
type URIParams struct {
	Scheme   string `yaml:"scheme" mapstructure:"scheme" validate:"omitempty,oneof=http https"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
}

// URL renders the parameters as a base URL. It returns nil without a host.
func (p URIParams) URL() *url.URL {
	if p.Host == "" {
		return nil
	}
	host := p.Host
	if p.Port > 0 {
		host += ":" + strconv.Itoa(p.Port)
	}
	scheme := p.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &url.URL{Scheme: scheme, Host: host, Path: p.BasePath}
}

func (p URIParams) String() string {
	if u := p.URL(); u != nil {
		return u.String()
	}
	return p.BasePath
}

// Config configures one requester.
type Config struct {
	// Name is the configuration name. Configurations of the same artifact
	// with the same name share a transport.
	Name    string            `yaml:"name" mapstructure:"name" validate:"required"`
	BaseURI URIParams         `yaml:"base_uri" mapstructure:"base_uri"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	ResponseTimeout   time.Duration `yaml:"response_timeout" mapstructure:"response_timeout" validate:"gte=0"`
	FollowRedirects   bool          `yaml:"follow_redirects" mapstructure:"follow_redirects"`
	MaxRedirects      int           `yaml:"max_redirects" mapstructure:"max_redirects" validate:"gte=0"`
	SendBodyMode      string        `yaml:"send_body_mode" mapstructure:"send_body_mode"`
	RetryTimeout      string        `yaml:"retry_timeout" mapstructure:"retry_timeout"`
	FailOnErrorStatus bool          `yaml:"fail_on_error_status" mapstructure:"fail_on_error_status"`

	// Client and Auth validate themselves.
	Client transport.Settings `yaml:"client" mapstructure:"client" validate:"-"`
	Auth   auth.Config        `yaml:"auth" mapstructure:"auth" validate:"-"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = DefaultResponseTimeout
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = transport.DefaultMaxRedirects
	}
	c.SendBodyMode = strings.ToUpper(c.SendBodyMode)
	if c.SendBodyMode == "" {
		c.SendBodyMode = string(transport.SendBodyAuto)
	}
	c.RetryTimeout = strings.ToUpper(c.RetryTimeout)
	if c.RetryTimeout == "" {
		c.RetryTimeout = string(RetryTimeoutFresh)
	}
	c.Client.ApplyDefaults()
	c.Auth.ApplyDefaults()
}

// Validate checks the configuration, including transport and auth settings.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", validation.Validate(c))
	if _, err := transport.ParseSendBodyMode(c.SendBodyMode); err != nil {
		v.AddError("send_body_mode", "must be one of AUTO ALWAYS NEVER")
	}
	if _, err := ParseRetryTimeout(c.RetryTimeout); err != nil {
		v.AddError("retry_timeout", "must be one of FRESH REMAINING")
	}
	v.Check(c.BaseURI.Host != "" || c.BaseURI.Port == 0, "base_uri.port", "requires base_uri.host")
	v.Merge("client", c.Client.Validate())
	v.Merge("auth", c.Auth.Validate())
	return v.Validate()
}

// defaults are the client-wide fallbacks for per-call options.
type defaults struct {
	responseTimeout   time.Duration
	followRedirects   bool
	maxRedirects      int
	sendBodyMode      transport.SendBodyMode
	retryTimeout      RetryTimeout
	streamResponse    bool
	failOnErrorStatus bool
}

func defaultsOf(c Config) defaults {
	mode, _ := transport.ParseSendBodyMode(c.SendBodyMode)
	policy, _ := ParseRetryTimeout(c.RetryTimeout)
	return defaults{
		responseTimeout:   c.ResponseTimeout,
		followRedirects:   c.FollowRedirects,
		maxRedirects:      c.MaxRedirects,
		sendBodyMode:      mode,
		retryTimeout:      policy,
		streamResponse:    c.Client.Streaming,
		failOnErrorStatus: c.FailOnErrorStatus,
	}
}
