package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
)

// Client authentication modes accepted by TLSConfig.ClientAuth.
const (
	ClientAuthNone    = "none"
	ClientAuthRequest = "request"
	ClientAuthRequire = "require"
)

// TLSConfig holds TLS settings for a requester transport or a listener server.
type TLSConfig struct {
	// SkipVerify disables server certificate verification (client side).
	// Not recommended for production.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the trust store: server CA for clients, client CA for servers.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CertFile is the certificate presented to the peer.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`

	// KeyFile is the private key for CertFile.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the server name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// ClientAuth is the server-side client certificate policy: none, request or require.
	ClientAuth string `yaml:"client_auth" mapstructure:"client_auth"`

	// MinVersion is the minimum TLS version (e.g., tls.VersionTLS12).
	// Defaults to TLS 1.2 if not set.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Build creates a client-side *tls.Config.
// Returns nil if no TLS settings are configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || !c.hasSettings() {
		return nil, nil
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify,
		ServerName:         c.ServerName,
		MinVersion:         c.minVersion(),
	}

	pool, err := c.loadCA()
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool

	if err := c.loadCert(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildServer creates a server-side *tls.Config. A certificate and key are
// mandatory; a CA file enables client certificate verification.
// Returns nil if no TLS settings are configured.
func (c *TLSConfig) BuildServer() (*tls.Config, error) {
	if c == nil || !c.hasSettings() {
		return nil, nil
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, fmt.Errorf("security/tls: a server TLS context requires cert_file and key_file")
	}

	cfg := &tls.Config{MinVersion: c.minVersion()}
	if err := c.loadCert(cfg); err != nil {
		return nil, err
	}

	pool, err := c.loadCA()
	if err != nil {
		return nil, err
	}
	cfg.ClientCAs = pool

	switch strings.ToLower(c.ClientAuth) {
	case "", ClientAuthNone:
		cfg.ClientAuth = tls.NoClientCert
	case ClientAuthRequest:
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	case ClientAuthRequire:
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: both cert_file and key_file must be provided together")
	}
	switch strings.ToLower(c.ClientAuth) {
	case "", ClientAuthNone, ClientAuthRequest, ClientAuthRequire:
	default:
		return fmt.Errorf("security/tls: client_auth must be one of none, request, require (got: %s)", c.ClientAuth)
	}
	return nil
}

// IsEnabled returns true if any TLS setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.hasSettings()
}

func (c *TLSConfig) hasSettings() bool {
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != ""
}

func (c *TLSConfig) minVersion() uint16 {
	if c.MinVersion == 0 {
		return tls.VersionTLS12
	}
	return c.MinVersion
}

func (c *TLSConfig) loadCA() (*x509.CertPool, error) {
	if c.CAFile == "" {
		return nil, nil
	}
	ca, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("security/tls: failed to parse CA certificate")
	}
	return pool, nil
}

func (c *TLSConfig) loadCert(cfg *tls.Config) error {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to load certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}
