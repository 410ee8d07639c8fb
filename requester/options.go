package requester

import (
	"net/http"
	"time"

	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/transport"
)

// CallOptions are the per-call parameters of Send. Zero values fall back
// to the client configuration.
type CallOptions struct {
	// Timeout overrides the response timeout when positive.
	Timeout time.Duration
	// FollowRedirects overrides the redirect policy when set.
	FollowRedirects *bool
	// Auth replaces the client's default strategy for this call.
	Auth auth.Authenticator
	// SendBodyMode overrides the body mode when set.
	SendBodyMode transport.SendBodyMode
	// Stream hands the response body to the caller unread.
	Stream bool
}

// Follow returns a pointer for CallOptions.FollowRedirects.
func Follow(v bool) *bool { return &v }

// buildOptions returns a new Options value for one call. Nothing it
// returns aliases state shared with another call.
func buildOptions(d defaults, call CallOptions) transport.Options {
	opts := transport.Options{
		ResponseTimeout: d.responseTimeout,
		FollowRedirects: d.followRedirects,
		MaxRedirects:    d.maxRedirects,
		SendBodyMode:    d.sendBodyMode,
		StreamResponse:  d.streamResponse || call.Stream,
	}
	if call.Timeout > 0 {
		opts.ResponseTimeout = call.Timeout
	}
	if call.FollowRedirects != nil {
		opts.FollowRedirects = *call.FollowRedirects
	}
	if call.SendBodyMode != "" {
		opts.SendBodyMode = call.SendBodyMode
	}
	return opts
}

// withAuthentication returns a copy of opts whose configurer applies
// strategy for attempt.
func withAuthentication(opts transport.Options, strategy auth.Strategy, attempt *auth.Attempt) transport.Options {
	if strategy == nil {
		opts.Authenticate = nil
		return opts
	}
	opts.Authenticate = func(req *http.Request) error {
		if err := strategy.Authenticate(req, attempt); err != nil {
			return securityError(strategy.Name(), err)
		}
		return nil
	}
	return opts
}

// withTimeout returns a copy of opts with a different response timeout.
func withTimeout(opts transport.Options, timeout time.Duration) transport.Options {
	opts.ResponseTimeout = timeout
	return opts
}
