package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kbukum/httpconnector/auth"
	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
	"github.com/kbukum/httpconnector/transport"
)

// maxDrain bounds how much of a discarded first response is read so its
// connection can be reused by the retry.
const maxDrain = 64 << 10

// requestFunc builds the request of one attempt. It is called once per
// attempt so every attempt gets its own request and body reader.
type requestFunc func(ctx context.Context) (*http.Request, error)

// protocol sends one logical request with an optional strategy: the first
// result goes to the strategy, which may ask for a single retry. The
// decision runs in the completion callback of the first send, never on the
// caller's goroutine.
type protocol struct {
	client            string
	transport         transport.Transport
	retryTimeout      RetryTimeout
	failOnErrorStatus bool
	metrics           *observability.ConnectorMetrics
	log               *logger.Logger
}

func (p *protocol) send(ctx context.Context, build requestFunc, opts transport.Options, strategy auth.Strategy) *transport.Future {
	strategyName := "none"
	if strategy != nil {
		strategyName = strategy.Name()
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPSend,
		attribute.String(observability.AttrClientKey, p.client),
		attribute.String(observability.AttrStrategy, strategyName),
	)

	result := transport.NewFuture()
	attempt := auth.NewAttempt()
	var finished atomic.Bool
	finish := func(resp *http.Response, err error) {
		if !finished.CompareAndSwap(false, true) {
			return
		}
		resp, err = p.validate(resp, err)
		span.SetAttributes(attribute.Int(observability.AttrAttempt, attempt.Number()))
		observability.EndSpan(span, statusOf(resp, err), err)
		result.Complete(resp, err)
	}

	started := time.Now()
	req, first := p.dispatch(ctx, build, withAuthentication(opts, strategy, attempt))
	first.OnComplete(func(resp *http.Response, err error) {
		if strategy == nil {
			finish(resp, err)
			return
		}
		p.decide(ctx, decision{
			build:    build,
			opts:     opts,
			strategy: strategy,
			attempt:  attempt,
			started:  started,
			request:  req,
			finish:   finish,
		}, resp, err)
	})
	return result
}

type decision struct {
	build    requestFunc
	opts     transport.Options
	strategy auth.Strategy
	attempt  *auth.Attempt
	started  time.Time
	request  *http.Request
	finish   func(*http.Response, error)
}

// decide hands the first result to the strategy. Exactly one of the two
// continuations takes effect; a panicking decision counts as not retrying
// and a panicking retry completes with an internal error.
func (p *protocol) decide(ctx context.Context, d decision, resp *http.Response, err error) {
	var body []byte
	if err == nil && resp != nil && d.strategy.ConsumesPayload() {
		var readErr error
		if body, readErr = bufferBody(resp); readErr != nil {
			d.finish(nil, errors.Connectivity(fmt.Errorf("read first response: %w", readErr)))
			return
		}
	}

	var decided atomic.Bool
	retry := func() {
		if !decided.CompareAndSwap(false, true) {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				p.log.Warn("authentication retry panicked", logger.Fields(
					logger.FieldStrategy, d.strategy.Name(),
					logger.FieldError, fmt.Sprint(r),
				))
				d.finish(nil, errors.Internal(fmt.Errorf("authentication retry panicked: %v", r)))
			}
		}()
		discard(resp)

		timeout := d.opts.ResponseTimeout
		if p.retryTimeout == RetryTimeoutRemaining && timeout > 0 {
			timeout -= time.Since(d.started)
			if timeout <= 0 {
				d.finish(nil, errors.Timeout(fmt.Errorf("response timeout of %s spent before the authentication retry", d.opts.ResponseTimeout)))
				return
			}
		}

		d.attempt.Advance()
		p.metrics.RecordRetry(ctx, p.client, d.strategy.Name())
		p.log.Debug("retrying with credentials", logger.Fields(
			logger.FieldStrategy, d.strategy.Name(),
			logger.FieldAttempt, d.attempt.Number(),
			logger.FieldStatus, statusOf(resp, err),
		))
		_, second := p.dispatch(ctx, d.build, withAuthentication(withTimeout(d.opts, timeout), d.strategy, d.attempt))
		second.OnComplete(d.finish)
	}
	notRetry := func() {
		if decided.CompareAndSwap(false, true) {
			d.finish(resp, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("authentication decision panicked", logger.Fields(
				logger.FieldStrategy, d.strategy.Name(),
				logger.FieldError, fmt.Sprint(r),
			))
			notRetry()
		}
	}()
	d.strategy.RetryIfShould(auth.Result{
		Request:  d.request,
		Response: resp,
		Body:     body,
		Err:      err,
		Attempt:  d.attempt,
	}, retry, notRetry)
}

// dispatch builds and sends one attempt.
func (p *protocol) dispatch(ctx context.Context, build requestFunc, opts transport.Options) (*http.Request, *transport.Future) {
	req, err := build(ctx)
	if err != nil {
		return nil, transport.Completed(nil, err)
	}
	observability.InjectHeaders(ctx, propagation.HeaderCarrier(req.Header))

	sent := time.Now()
	f := p.transport.Send(ctx, req, opts)
	f.OnComplete(func(resp *http.Response, err error) {
		p.metrics.RecordSend(ctx, p.client, req.Method, statusOf(resp, err), time.Since(sent))
	})
	return req, f
}

// validate turns error statuses into typed errors when the client asks for it.
// The response is still returned so callers can inspect it.
func (p *protocol) validate(resp *http.Response, err error) (*http.Response, error) {
	if !p.failOnErrorStatus || err != nil || resp == nil || resp.StatusCode < 400 {
		return resp, err
	}
	body, readErr := bufferBody(resp)
	if readErr != nil {
		return resp, errors.Connectivity(readErr)
	}
	return resp, errors.FromStatus(resp.StatusCode, body)
}

func statusOf(resp *http.Response, err error) int {
	if err != nil || resp == nil {
		return 0
	}
	return resp.StatusCode
}

// bufferBody reads the body and replaces it with an in-memory copy.
func bufferBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	_ = resp.Body.Close()
}

func securityError(strategy string, err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.ClientSecurity(strategy, err)
}
