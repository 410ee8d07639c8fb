package transport

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/logger"
)

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	settings Settings
	log      *logger.Logger

	mu      sync.RWMutex
	rt      *http.Transport
	running bool
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport validates s and returns a stopped transport.
func NewHTTPTransport(s Settings) (*HTTPTransport, error) {
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.TLS != nil {
		if _, err := s.TLS.Build(); err != nil {
			return nil, err
		}
	}
	return &HTTPTransport{
		settings: s,
		log:      logger.Get("transport").WithFields(logger.Fields(logger.FieldClientKey, s.Name)),
	}, nil
}

// Settings returns a copy of the transport settings.
func (t *HTTPTransport) Settings() Settings {
	return t.settings
}

// Start builds the pooled round tripper. Starting a running transport is a no-op.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	rt, err := t.buildRoundTripper()
	if err != nil {
		return err
	}
	t.rt, t.running = rt, true
	t.log.Debug("transport started", logger.Fields(
		"max_connections", t.settings.MaxConnections,
		"persistent", t.settings.Persistent(),
		"proxy", t.settings.Proxy != nil && t.settings.Proxy.Host != "",
	))
	return nil
}

// Stop rejects new sends and closes idle connections. In-flight sends run
// to completion.
func (t *HTTPTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	rt := t.rt
	t.rt, t.running = nil, false
	t.mu.Unlock()

	if rt != nil {
		rt.CloseIdleConnections()
		t.log.Debug("transport stopped")
	}
	return nil
}

// Running reports whether the transport accepts sends.
func (t *HTTPTransport) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req *http.Request, opts Options) *Future {
	t.mu.RLock()
	rt, running := t.rt, t.running
	t.mu.RUnlock()
	if !running {
		return Completed(nil, errors.ClientStopped(t.settings.Name))
	}

	f := NewFuture()
	go func() {
		resp, err := t.roundTrip(ctx, rt, req, opts)
		f.Complete(resp, err)
	}()
	return f
}

func (t *HTTPTransport) roundTrip(ctx context.Context, rt http.RoundTripper, req *http.Request, opts Options) (*http.Response, error) {
	cancel := context.CancelFunc(func() {})
	if opts.ResponseTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.ResponseTimeout)
	}
	req = req.WithContext(ctx)

	if !opts.SendBodyMode.Sends(req.Method) {
		stripBody(req)
	}
	if opts.Authenticate != nil {
		if err := opts.Authenticate(req); err != nil {
			cancel()
			return nil, err
		}
	}

	client := &http.Client{Transport: rt, CheckRedirect: redirectPolicy(opts)}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, classify(ctx, err)
	}

	if opts.StreamResponse || t.settings.Streaming {
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}

	defer cancel()
	buf := bytes.NewBuffer(make([]byte, 0, t.settings.ResponseBufferSize))
	_, err = buf.ReadFrom(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read response body: %w", err))
	}
	resp.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	resp.ContentLength = int64(buf.Len())
	return resp, nil
}

func (t *HTTPTransport) buildRoundTripper() (*http.Transport, error) {
	s := t.settings
	tlsCfg, err := s.TLS.Build()
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: s.ConnectTimeout, KeepAlive: s.KeepAlive}
	rt := &http.Transport{
		Proxy:                 s.Proxy.proxyFunc(),
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		MaxConnsPerHost:       s.MaxConnections,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdlePerHost(s.MaxConnections),
		IdleConnTimeout:       s.ConnectionIdleTimeout,
		DisableKeepAlives:     !s.Persistent(),
		ReadBufferSize:        s.ResponseBufferSize,
		ForceAttemptHTTP2:     true,
	}

	h2, err := http2.ConfigureTransports(rt)
	if err != nil {
		return nil, fmt.Errorf("transport: configure http2: %w", err)
	}
	if s.Persistent() && s.KeepAlive > 0 {
		h2.ReadIdleTimeout = s.KeepAlive
		h2.PingTimeout = 15 * time.Second
	}
	return rt, nil
}

func maxIdlePerHost(maxConns int) int {
	if maxConns > 0 {
		return maxConns
	}
	return http.DefaultMaxIdleConnsPerHost
}

func redirectPolicy(opts Options) func(*http.Request, []*http.Request) error {
	if !opts.FollowRedirects {
		return func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	limit := opts.MaxRedirects
	if limit <= 0 {
		limit = DefaultMaxRedirects
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	}
}

func stripBody(req *http.Request) {
	if req.Body != nil && req.Body != http.NoBody {
		_ = req.Body.Close()
	}
	req.Body = http.NoBody
	req.GetBody = nil
	req.ContentLength = 0
	req.Header.Del("Content-Length")
}

func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Timeout(err)
	}
	return errors.Connectivity(err)
}

// cancelOnClose releases the per-call timeout when a streamed body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
