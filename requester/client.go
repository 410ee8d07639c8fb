package requester

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/shared"
	"github.com/kbukum/httpconnector/transport"
	"github.com/kbukum/httpconnector/version"
)

var userAgent = version.UserAgent()

// Request describes one outbound request.
type Request struct {
	Method string
	// URI is absolute, or relative to the client's default URI parameters.
	URI     string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
}

// Client combines a shared transport handle with the defaults of one
// requester configuration. Clients built from configurations with the same
// name share the transport; each Client counts as one reference while
// started.
type Client struct {
	name     string
	handle   *shared.Handle[transport.Transport]
	params   URIParams
	base     *url.URL
	headers  map[string]string
	defaults defaults

	authn    auth.Authenticator
	strategy auth.Strategy
	proto    *protocol
	log      *logger.Logger
}

func newClient(cfg Config, h *shared.Handle[transport.Transport], authn auth.Authenticator, metrics *observability.ConnectorMetrics) (*Client, error) {
	strategy, err := auth.Bind(authn)
	if err != nil {
		return nil, errors.InvalidInput("auth", err.Error())
	}
	d := defaultsOf(cfg)
	log := logger.Get("requester").WithFields(logger.Fields(logger.FieldClientKey, h.Key()))
	return &Client{
		name:     cfg.Name,
		handle:   h,
		params:   cfg.BaseURI,
		base:     cfg.BaseURI.URL(),
		headers:  cfg.Headers,
		defaults: d,
		authn:    authn,
		strategy: strategy,
		proto: &protocol{
			client:            h.Key(),
			transport:         h.Resource(),
			retryTimeout:      d.retryTimeout,
			failOnErrorStatus: d.failOnErrorStatus,
			metrics:           metrics,
			log:               log,
		},
		log: log,
	}, nil
}

// Name returns the configuration name.
func (c *Client) Name() string { return c.name }

// Key returns the shared transport key.
func (c *Client) Key() string { return c.handle.Key() }

// DefaultURIParameters returns the fallback for relative request URIs.
func (c *Client) DefaultURIParameters() URIParams { return c.params }

// DefaultAuthentication returns the configured strategy, or nil.
func (c *Client) DefaultAuthentication() auth.Authenticator { return c.authn }

// Start takes a reference on the shared transport and starts the default
// strategy if it holds resources. If the strategy fails to start, the
// transport reference is released again.
func (c *Client) Start(ctx context.Context) error {
	if err := c.handle.Start(ctx); err != nil {
		return err
	}
	if lc, ok := c.authn.(auth.Lifecycle); ok {
		if err := lc.Start(ctx); err != nil {
			if stopErr := c.handle.Stop(ctx); stopErr != nil {
				c.log.Warn("rollback of transport start failed", logger.Fields(logger.FieldError, stopErr.Error()))
			}
			return securityError(c.authn.Name(), err)
		}
	}
	return nil
}

// Stop stops the default strategy and releases the transport reference.
func (c *Client) Stop(ctx context.Context) error {
	var errs []error
	if lc, ok := c.authn.(auth.Lifecycle); ok {
		if err := lc.Stop(ctx); err != nil {
			errs = append(errs, securityError(c.authn.Name(), err))
		}
	}
	if err := c.handle.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

// Close disposes the client. The shared transport is forgotten by the
// registry once no client references it.
func (c *Client) Close() {
	c.handle.Close()
}

// Send dispatches req and returns at once. The future completes after the
// first attempt, or after the authentication retry when the strategy asks
// for one.
func (c *Client) Send(ctx context.Context, req Request, call CallOptions) *transport.Future {
	strategy := c.strategy
	if call.Auth != nil {
		s, err := auth.Bind(call.Auth)
		if err != nil {
			return transport.Completed(nil, errors.InvalidInput("auth", err.Error()))
		}
		strategy = s
	}
	target, err := c.resolve(req)
	if err != nil {
		return transport.Completed(nil, err)
	}
	build := func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, req, target)
	}
	return c.proto.send(ctx, build, buildOptions(c.defaults, call), strategy)
}

// Do is Send followed by Await.
func (c *Client) Do(ctx context.Context, req Request, call CallOptions) (*http.Response, error) {
	return c.Send(ctx, req, call).Await(ctx)
}

// ValidateResponse returns the typed error for an error status, or nil.
func (c *Client) ValidateResponse(resp *http.Response) error {
	if resp == nil || resp.StatusCode < 400 {
		return nil
	}
	body, err := bufferBody(resp)
	if err != nil {
		return errors.Connectivity(err)
	}
	return errors.FromStatus(resp.StatusCode, body)
}

// resolve returns the absolute URL of req.
func (c *Client) resolve(req Request) (*url.URL, error) {
	u, err := url.Parse(req.URI)
	if err != nil {
		return nil, errors.InvalidInput("uri", err.Error())
	}
	if !u.IsAbs() {
		if c.base == nil {
			return nil, errors.InvalidInput("uri", fmt.Sprintf("%q is relative and no base_uri host is configured", req.URI))
		}
		ref := *c.base
		ref.Path = joinPath(c.base.Path, u.Path)
		ref.RawQuery = u.RawQuery
		ref.Fragment = ""
		u = &ref
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func joinPath(base, p string) string {
	if p == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) newRequest(ctx context.Context, req Request, target *url.URL) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	r, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errors.InvalidInput("request", err.Error())
	}
	for k, v := range c.headers {
		r.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", userAgent)
	}
	return r, nil
}
