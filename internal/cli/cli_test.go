package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kbukum/httpconnector/bootstrap"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/requester"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func connectorYAML(port int, upstream, exporter string) string {
	host, upstreamPort, _ := net.SplitHostPort(strings.TrimPrefix(upstream, "http://"))
	return fmt.Sprintf(`
name: orders-connector
logging:
  level: error
telemetry:
  metrics:
    exporter: %s
listeners:
  - name: api
    host: 127.0.0.1
    port: %d
    base_path: /ops
  - name: admin
    server: api
    base_path: /admin
requesters:
  - name: billing
    response_timeout: 2s
    retry_timeout: REMAINING
    base_uri:
      host: %s
      port: %s
    auth:
      type: basic
      username: svc
      password: secret
`, exporter, port, host, upstreamPort)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, connectorYAML(9000, "http://127.0.0.1:9001", "none"))
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Artifact != "orders-connector" {
		t.Errorf("artifact = %q", cfg.Artifact)
	}
	if cfg.HealthListener != "api" {
		t.Errorf("health listener = %q", cfg.HealthListener)
	}
	if len(cfg.Listeners) != 2 || cfg.Listeners[1].Server != "api" || cfg.Listeners[0].Server != "api" {
		t.Errorf("listeners = %+v", cfg.Listeners)
	}
	r := cfg.Requesters[0]
	if r.ResponseTimeout.String() != "2s" || r.RetryTimeout != "REMAINING" || r.Auth.Type != "basic" {
		t.Errorf("requester = %+v", r)
	}
	if r.BaseURI.Port != 9001 {
		t.Errorf("base_uri.port = %d", r.BaseURI.Port)
	}
}

func TestConnectorConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"duplicate listener", `
name: c
listeners: [{name: a}, {name: a}]
`, "duplicate listener a"},
		{"duplicate requester", `
name: c
requesters: [{name: r}, {name: r}]
`, "duplicate requester r"},
		{"unknown health listener", `
name: c
health_listener: missing
listeners: [{name: a}]
`, "unknown listener missing"},
		{"invalid requester", `
name: c
requesters: [{name: r, auth: {type: kerberos}}]
`, "basic digest ntlm jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			cfg.ApplyDefaults()
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuild_ServesHealthAndMetrics(t *testing.T) {
	var authorized atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="billing"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		authorized.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	port := freePort(t)
	cfg, err := LoadConfig(writeConfig(t, connectorYAML(port, upstream.URL, "prometheus")))
	if err != nil {
		t.Fatal(err)
	}
	conn, err := Build(cfg, bootstrap.WithLogger(logger.NewNop()), bootstrap.WithoutSummary())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if conn.Listeners["api"].Server() != conn.Listeners["admin"].Server() {
		t.Error("listeners naming the same server must share it")
	}

	ctx := context.Background()
	if err := conn.App.Components.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	defer conn.App.Components.StopAll(ctx)

	resp, err := conn.Requesters["billing"].Do(ctx, requester.Request{Method: http.MethodGet, URI: "/invoices"}, requester.CallOptions{})
	if err != nil {
		t.Fatalf("requester call: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !authorized.Load() {
		t.Errorf("requester status = %d authorized=%v", resp.StatusCode, authorized.Load())
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	health, err := http.Get(base + "/ops/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(health.Body)
	health.Body.Close()
	if health.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"healthy"`) {
		t.Errorf("health = %d %s", health.StatusCode, body)
	}
	for _, name := range []string{"listener:api", "listener:admin", "requester:billing", "telemetry"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("health body missing %s", name)
		}
	}

	metrics, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(metrics.Body)
	metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK || !strings.Contains(string(body), "httpconnector") {
		t.Errorf("metrics = %d, body lacks connector instruments", metrics.StatusCode)
	}
}

func TestCheckCommand(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer upstream.Close()
	path := writeConfig(t, connectorYAML(freePort(t), upstream.URL, "none"))

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("check: %v\n%s", err, out.String())
	}
	for _, want := range []string{"listener:api", "requester:billing", "healthy"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckCommand_BindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	path := writeConfig(t, connectorYAML(busy.Addr().(*net.TCPAddr).Port, "http://127.0.0.1:1", "none"))

	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"check", "-c", path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected start failure on a busy port")
	}
}
