package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func basicServer(t *testing.T, challenge string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok && user == "alice" && pass == "secret" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if challenge != "" {
			w.Header().Set("WWW-Authenticate", challenge)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBasic_ChallengeDriven(t *testing.T) {
	srv := basicServer(t, `Basic realm="test"`)
	b := &Basic{Username: "alice", Password: "secret"}

	resp, sends := exchange(t, b, http.MethodGet, srv.URL)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if sends != 2 {
		t.Errorf("sends = %d, want 2", sends)
	}
}

func TestBasic_Preemptive(t *testing.T) {
	srv := basicServer(t, `Basic realm="test"`)
	b := &Basic{Username: "alice", Password: "secret", Preemptive: true}

	resp, sends := exchange(t, b, http.MethodGet, srv.URL)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || sends != 1 {
		t.Errorf("status = %d sends = %d, want 200 after one send", resp.StatusCode, sends)
	}
}

func TestBasic_PreemptiveRejectedDoesNotRetry(t *testing.T) {
	srv := basicServer(t, `Basic realm="test"`)
	b := &Basic{Username: "alice", Password: "wrong", Preemptive: true}

	resp, sends := exchange(t, b, http.MethodGet, srv.URL)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized || sends != 1 {
		t.Errorf("status = %d sends = %d, want 401 after one send", resp.StatusCode, sends)
	}
}

func TestBasic_OtherSchemeNotRetried(t *testing.T) {
	srv := basicServer(t, `Bearer realm="test"`)
	b := &Basic{Username: "alice", Password: "secret"}

	resp, sends := exchange(t, b, http.MethodGet, srv.URL)
	defer resp.Body.Close()
	if sends != 1 {
		t.Errorf("sends = %d, want 1", sends)
	}
}

func TestBasic_ProxyTarget(t *testing.T) {
	b := &Basic{Username: "u", Password: "p", Target: TargetProxy}
	rec := httptest.NewRecorder()
	rec.Header().Set("Proxy-Authenticate", `Basic realm="proxy"`)
	rec.WriteHeader(http.StatusProxyAuthRequired)

	attempt := NewAttempt()
	if !b.ShouldRetry(Result{Response: rec.Result(), Attempt: attempt}) {
		t.Fatal("expected a retry on 407 with a Basic proxy challenge")
	}
	attempt.Advance()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err := b.Authenticate(req, attempt); err != nil {
		t.Fatal(err)
	}
	if got := req.Header.Get("Proxy-Authorization"); got != "Basic dTpw" {
		t.Errorf("Proxy-Authorization = %q", got)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("server credentials should not be set for a proxy target")
	}
}

func TestBasic_TransportFailureNotRetried(t *testing.T) {
	b := &Basic{Username: "u", Password: "p"}
	if b.ShouldRetry(Result{Err: http.ErrServerClosed, Attempt: NewAttempt()}) {
		t.Error("a transport failure should not be retried")
	}
}
