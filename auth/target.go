package auth

import (
	"net/http"
	"strings"
)

// Target is the party a strategy authenticates against.
type Target int

const (
	TargetServer Target = iota
	TargetProxy
)

// ParseTarget maps "proxy" to TargetProxy and anything else to TargetServer.
func ParseTarget(s string) Target {
	if strings.EqualFold(s, "proxy") {
		return TargetProxy
	}
	return TargetServer
}

// CredentialsHeader is where credentials are sent.
func (t Target) CredentialsHeader() string {
	if t == TargetProxy {
		return "Proxy-Authorization"
	}
	return "Authorization"
}

// ChallengeHeader is where the peer sends its challenge.
func (t Target) ChallengeHeader() string {
	if t == TargetProxy {
		return "Proxy-Authenticate"
	}
	return "WWW-Authenticate"
}

// ChallengeStatus is the status that carries a challenge.
func (t Target) ChallengeStatus() int {
	if t == TargetProxy {
		return http.StatusProxyAuthRequired
	}
	return http.StatusUnauthorized
}

func (t Target) String() string {
	if t == TargetProxy {
		return "proxy"
	}
	return "server"
}

// challenged returns the challenges for scheme when r is a challenge
// response for t.
func (t Target) challenged(r Result, scheme string) ([]Challenge, bool) {
	if r.StatusCode() != t.ChallengeStatus() {
		return nil, false
	}
	found := FindChallenges(r.Response.Header.Values(t.ChallengeHeader()), scheme)
	return found, len(found) > 0
}
