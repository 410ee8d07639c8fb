package requester

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/transport"
)

type sentRequest struct {
	req  *http.Request
	opts transport.Options
}

// fakeTransport completes every send on its own goroutine, the way
// HTTPTransport does, after running the per-call configurer.
type fakeTransport struct {
	starts atomic.Int32
	stops  atomic.Int32

	mu    sync.Mutex
	sends []sentRequest

	delay   func(n int) time.Duration
	respond func(n int, req *http.Request) (*http.Response, error)
}

func (f *fakeTransport) Start(context.Context) error { f.starts.Add(1); return nil }
func (f *fakeTransport) Stop(context.Context) error { f.stops.Add(1); return nil }

func (f *fakeTransport) Send(_ context.Context, req *http.Request, opts transport.Options) *transport.Future {
	f.mu.Lock()
	f.sends = append(f.sends, sentRequest{req: req, opts: opts})
	n := len(f.sends)
	f.mu.Unlock()

	fut := transport.NewFuture()
	go func() {
		if opts.Authenticate != nil {
			if err := opts.Authenticate(req); err != nil {
				fut.Complete(nil, err)
				return
			}
		}
		if f.delay != nil {
			time.Sleep(f.delay(n))
		}
		respond := f.respond
		if respond == nil {
			respond = func(int, *http.Request) (*http.Response, error) { return response(http.StatusOK, "ok"), nil }
		}
		fut.Complete(respond(n, req))
	}()
	return fut
}

func (f *fakeTransport) sent() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentRequest(nil), f.sends...)
}

func response(status int, body string, header ...string) *http.Response {
	h := http.Header{}
	for i := 0; i+1 < len(header); i += 2 {
		h.Add(header[i], header[i+1])
	}
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// fakeStrategy marks each attempt and delegates the decision.
type fakeStrategy struct {
	consumes bool
	decide   func(r auth.Result, retry, notRetry func())
	auths    atomic.Int32
}

func (s *fakeStrategy) Name() string { return "fake" }

func (s *fakeStrategy) ConsumesPayload() bool { return s.consumes }

func (s *fakeStrategy) Authenticate(req *http.Request, attempt *auth.Attempt) error {
	s.auths.Add(1)
	if attempt.Retrying() {
		req.Header.Set("X-Credentials", "yes")
	}
	return nil
}

func (s *fakeStrategy) RetryIfShould(r auth.Result, retry, notRetry func()) {
	s.decide(r, retry, notRetry)
}

func retryOn401(r auth.Result, retry, notRetry func()) {
	if r.StatusCode() == http.StatusUnauthorized {
		retry()
		return
	}
	notRetry()
}

// challengeThenOK answers 401 unless the request carries credentials.
func challengeThenOK(_ int, req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Credentials") == "" {
		return response(http.StatusUnauthorized, "challenge"), nil
	}
	return response(http.StatusOK, "welcome"), nil
}

type lifecycleStrategy struct {
	fakeStrategy
	startErr error
	started  atomic.Int32
	stopped  atomic.Int32
}

func (s *lifecycleStrategy) Start(context.Context) error {
	s.started.Add(1)
	return s.startErr
}

func (s *lifecycleStrategy) Stop(context.Context) error {
	s.stopped.Add(1)
	return nil
}

func newFakeProvider(ft transport.Transport) (*Provider, *atomic.Int32) {
	var built atomic.Int32
	p := NewProvider("app", WithFactory(func(transport.Settings) (transport.Transport, error) {
		built.Add(1)
		return ft, nil
	}))
	return p, &built
}

func startedClient(t *testing.T, ft transport.Transport, cfg Config) *Client {
	t.Helper()
	p, _ := newFakeProvider(ft)
	if cfg.Name == "" {
		cfg.Name = "api"
	}
	if cfg.BaseURI.Host == "" {
		cfg.BaseURI = URIParams{Host: "example.test"}
	}
	c, err := p.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Stop(context.Background())
		c.Close()
	})
	return c
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	_ = resp.Body.Close()
	return string(data)
}
