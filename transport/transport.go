package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Transport is an asynchronous HTTP client with an explicit lifecycle.
type Transport interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Send dispatches req and returns immediately. The future completes on
	// a transport goroutine.
	Send(ctx context.Context, req *http.Request, opts Options) *Future
}

// Factory builds a Transport from its settings. Registries call it once per key.
type Factory func(Settings) (Transport, error)

// DefaultFactory builds HTTPTransports.
func DefaultFactory(s Settings) (Transport, error) {
	t, err := NewHTTPTransport(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SendBodyMode controls whether a request body goes on the wire.
type SendBodyMode string

const (
	// SendBodyAuto omits the body for GET, HEAD, OPTIONS and TRACE.
	SendBodyAuto   SendBodyMode = "AUTO"
	SendBodyAlways SendBodyMode = "ALWAYS"
	SendBodyNever  SendBodyMode = "NEVER"
)

// ParseSendBodyMode accepts AUTO, ALWAYS or NEVER in any case. Empty is AUTO.
func ParseSendBodyMode(s string) (SendBodyMode, error) {
	switch mode := SendBodyMode(strings.ToUpper(s)); mode {
	case "":
		return SendBodyAuto, nil
	case SendBodyAuto, SendBodyAlways, SendBodyNever:
		return mode, nil
	default:
		return "", fmt.Errorf("transport: unknown send body mode %q", s)
	}
}

// Sends reports whether a body should be sent for method.
func (m SendBodyMode) Sends(method string) bool {
	switch m {
	case SendBodyAlways:
		return true
	case SendBodyNever:
		return false
	}
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// DefaultMaxRedirects applies when Options.FollowRedirects is set without a limit.
const DefaultMaxRedirects = 10

// Options are the per-call settings of one Send. Options is a value; each
// call builds its own.
type Options struct {
	// ResponseTimeout bounds the whole exchange. Zero means no timeout.
	ResponseTimeout time.Duration
	FollowRedirects bool
	MaxRedirects    int
	SendBodyMode    SendBodyMode
	// StreamResponse hands the body to the caller unread.
	StreamResponse bool
	// Authenticate is applied to the outgoing request before it is sent.
	Authenticate func(*http.Request) error
}
