package auth

import (
	"testing"

	"github.com/kbukum/httpconnector/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"basic", Config{Type: "Basic", Username: "u", Password: "p"}, "basic"},
		{"digest", Config{Type: "digest", Username: "u"}, "digest"},
		{"ntlm", Config{Type: "ntlm", Username: "u", Domain: "d"}, "ntlm"},
		{"jwt", Config{Type: "jwt", JWT: JWTConfig{Secret: "k"}}, "jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if a.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", a.Name(), tt.want)
			}
			if _, err := Bind(a); err != nil {
				t.Errorf("Bind() error = %v", err)
			}
		})
	}
}

func TestNew_None(t *testing.T) {
	a, err := New(Config{})
	if err != nil || a != nil {
		t.Fatalf("New(empty) = %v, %v", a, err)
	}
	if (&Config{}).IsEnabled() {
		t.Error("empty config should not be enabled")
	}
}

func TestNew_ProxyTarget(t *testing.T) {
	a, err := New(Config{Type: "basic", Username: "u", Proxy: true})
	if err != nil {
		t.Fatal(err)
	}
	if a.(*Basic).Target != TargetProxy {
		t.Error("proxy flag should select the proxy target")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "kerberos"}},
		{"basic without user", Config{Type: "basic"}},
		{"jwt without secret", Config{Type: "jwt"}},
		{"jwt rsa without key", Config{Type: "jwt", JWT: JWTConfig{Method: "RS256"}}},
		{"jwt proxy", Config{Type: "jwt", Proxy: true, JWT: JWTConfig{Secret: "k"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Validate() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Type: " JWT "}
	cfg.ApplyDefaults()
	if cfg.Type != TypeJWT || cfg.JWT.Method != "HS256" || cfg.JWT.TTL != DefaultJWTTTL {
		t.Errorf("defaults = %+v", cfg)
	}
}
