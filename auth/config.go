package auth

import (
	"strings"
	"time"

	"github.com/kbukum/httpconnector/validation"
)

// Strategy type names accepted in configuration.
const (
	TypeNone   = ""
	TypeBasic  = "basic"
	TypeDigest = "digest"
	TypeNTLM   = "ntlm"
	TypeJWT    = "jwt"
)

// Config selects and configures a built-in strategy.
type Config struct {
	Type        string `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=basic digest ntlm jwt"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	Domain      string `yaml:"domain" mapstructure:"domain"`
	Workstation string `yaml:"workstation" mapstructure:"workstation"`
	Preemptive  bool   `yaml:"preemptive" mapstructure:"preemptive"`
	// Proxy authenticates against the proxy instead of the origin server.
	Proxy bool      `yaml:"proxy" mapstructure:"proxy"`
	JWT   JWTConfig `yaml:"jwt" mapstructure:"jwt"`
}

// JWTConfig configures the bearer token strategy.
type JWTConfig struct {
	Issuer   string         `yaml:"issuer" mapstructure:"issuer"`
	Subject  string         `yaml:"subject" mapstructure:"subject"`
	Audience []string       `yaml:"audience" mapstructure:"audience"`
	TTL      time.Duration  `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
	Method   string         `yaml:"method" mapstructure:"method"`
	Secret   string         `yaml:"secret" mapstructure:"secret"`
	KeyFile  string         `yaml:"key_file" mapstructure:"key_file"`
	Claims   map[string]any `yaml:"claims" mapstructure:"claims"`
}

// ApplyDefaults normalizes the type and fills the JWT defaults.
func (c *Config) ApplyDefaults() {
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	if c.Type == TypeJWT {
		if c.JWT.Method == "" {
			c.JWT.Method = "HS256"
		}
		if c.JWT.TTL == 0 {
			c.JWT.TTL = DefaultJWTTTL
		}
	}
}

// Validate checks the fields the selected type needs.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", validation.Validate(c))
	switch c.Type {
	case TypeBasic, TypeDigest, TypeNTLM:
		v.Required("username", c.Username)
	case TypeJWT:
		method := strings.ToUpper(c.JWT.Method)
		if strings.HasPrefix(method, "HS") {
			v.Required("jwt.secret", c.JWT.Secret)
		} else {
			v.Required("jwt.key_file", c.JWT.KeyFile)
		}
		v.Check(!c.Proxy, "proxy", "jwt cannot target a proxy")
	}
	return v.Validate()
}

// IsEnabled reports whether a strategy is configured.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Type != TypeNone
}

// New builds the configured strategy, or nil when none is configured.
func New(cfg Config) (Authenticator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target := TargetServer
	if cfg.Proxy {
		target = TargetProxy
	}
	switch cfg.Type {
	case TypeBasic:
		return &Basic{Username: cfg.Username, Password: cfg.Password, Preemptive: cfg.Preemptive, Target: target}, nil
	case TypeDigest:
		return &Digest{Username: cfg.Username, Password: cfg.Password, Target: target}, nil
	case TypeNTLM:
		return &NTLM{
			Domain:      cfg.Domain,
			Username:    cfg.Username,
			Password:    cfg.Password,
			Workstation: cfg.Workstation,
			Target:      target,
		}, nil
	case TypeJWT:
		return &JWTBearer{
			Issuer:   cfg.JWT.Issuer,
			Subject:  cfg.JWT.Subject,
			Audience: cfg.JWT.Audience,
			TTL:      cfg.JWT.TTL,
			Method:   cfg.JWT.Method,
			Secret:   cfg.JWT.Secret,
			KeyFile:  cfg.JWT.KeyFile,
			Claims:   cfg.JWT.Claims,
		}, nil
	}
	return nil, nil
}
