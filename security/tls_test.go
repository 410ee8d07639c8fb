package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/httpconnector/security/tlstest"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	var nilCfg *TLSConfig
	for name, cfg := range map[string]*TLSConfig{"nil": nilCfg, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			result, err := cfg.Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != nil {
				t.Fatal("expected nil tls.Config")
			}
			if cfg.IsEnabled() {
				t.Error("expected IsEnabled=false")
			}
		})
	}
}

func TestTLSConfig_Build_Settings(t *testing.T) {
	tests := []struct {
		name       string
		cfg        TLSConfig
		skip       bool
		serverName string
		minVersion uint16
	}{
		{"skip verify", TLSConfig{SkipVerify: true}, true, "", tls.VersionTLS12},
		{"server name", TLSConfig{ServerName: "example.com"}, false, "example.com", tls.VersionTLS12},
		{"min version", TLSConfig{SkipVerify: true, MinVersion: tls.VersionTLS13}, true, "", tls.VersionTLS13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.cfg.Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil {
				t.Fatal("expected non-nil tls.Config")
			}
			if result.InsecureSkipVerify != tt.skip {
				t.Errorf("InsecureSkipVerify = %v, want %v", result.InsecureSkipVerify, tt.skip)
			}
			if result.ServerName != tt.serverName {
				t.Errorf("ServerName = %q, want %q", result.ServerName, tt.serverName)
			}
			if result.MinVersion != tt.minVersion {
				t.Errorf("MinVersion = %d, want %d", result.MinVersion, tt.minVersion)
			}
		})
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing CA", TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"invalid CA", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "ca.pem")}},
		{"missing cert", TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTLSConfig_Build_WithGeneratedCerts(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := &TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}

	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RootCAs == nil {
		t.Error("expected RootCAs to be set")
	}
	if len(result.Certificates) != 1 {
		t.Errorf("expected 1 client certificate, got %d", len(result.Certificates))
	}
}

func TestTLSConfig_BuildServer(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)

	tests := []struct {
		name     string
		cfg      TLSConfig
		wantErr  bool
		wantAuth tls.ClientAuthType
	}{
		{"cert only", TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}, false, tls.NoClientCert},
		{"mtls required", TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile, CAFile: certs.CAFile, ClientAuth: ClientAuthRequire}, false, tls.RequireAndVerifyClientCert},
		{"mtls optional", TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile, CAFile: certs.CAFile, ClientAuth: ClientAuthRequest}, false, tls.VerifyClientCertIfGiven},
		{"no key material", TLSConfig{CAFile: certs.CAFile}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.cfg.BuildServer()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Certificates) != 1 {
				t.Fatalf("expected 1 certificate, got %d", len(result.Certificates))
			}
			if result.ClientAuth != tt.wantAuth {
				t.Errorf("ClientAuth = %v, want %v", result.ClientAuth, tt.wantAuth)
			}
		})
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &TLSConfig{}, false},
		{"cert without key", &TLSConfig{CertFile: "cert.pem"}, true},
		{"key without cert", &TLSConfig{KeyFile: "key.pem"}, true},
		{"both", &TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}, false},
		{"bad client auth", &TLSConfig{ClientAuth: "sometimes"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
