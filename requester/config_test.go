package requester

import (
	"testing"
	"time"

	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/transport"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Name: "api", SendBodyMode: "never", RetryTimeout: "remaining"}
	cfg.ApplyDefaults()
	if cfg.ResponseTimeout != DefaultResponseTimeout || cfg.MaxRedirects != transport.DefaultMaxRedirects {
		t.Errorf("timeouts = %v/%d", cfg.ResponseTimeout, cfg.MaxRedirects)
	}
	if cfg.SendBodyMode != "NEVER" || cfg.RetryTimeout != "REMAINING" {
		t.Errorf("modes = %s/%s", cfg.SendBodyMode, cfg.RetryTimeout)
	}
	if cfg.Client.ResponseBufferSize != transport.DefaultResponseBufferSize {
		t.Errorf("client defaults not applied: %+v", cfg.Client)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{}},
		{"bad send body mode", Config{Name: "a", SendBodyMode: "SOMETIMES"}},
		{"bad retry timeout", Config{Name: "a", RetryTimeout: "LATER"}},
		{"bad scheme", Config{Name: "a", BaseURI: URIParams{Scheme: "ftp", Host: "h"}}},
		{"port without host", Config{Name: "a", BaseURI: URIParams{Port: 80}}},
		{"negative timeout", Config{Name: "a", ResponseTimeout: -time.Second}},
		{"bad client", Config{Name: "a", Client: transport.Settings{MaxConnections: -1}}},
		{"bad auth", Config{Name: "a", Auth: authConfig("basic")}},
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

func TestParseRetryTimeout(t *testing.T) {
	for in, want := range map[string]RetryTimeout{"": RetryTimeoutFresh, "fresh": RetryTimeoutFresh, "Remaining": RetryTimeoutRemaining} {
		got, err := ParseRetryTimeout(in)
		if err != nil || got != want {
			t.Errorf("ParseRetryTimeout(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRetryTimeout("never"); err == nil {
		t.Error("expected an error")
	}
}

func TestURIParams(t *testing.T) {
	if u := (URIParams{}).URL(); u != nil {
		t.Errorf("URL() without host = %v", u)
	}
	p := URIParams{Host: "h", Port: 81, BasePath: "/b"}
	if got := p.String(); got != "http://h:81/b" {
		t.Errorf("String() = %s", got)
	}
}
