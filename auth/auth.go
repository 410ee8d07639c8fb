package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Authenticator is the part of the strategy contract shared by both
// decision styles.
type Authenticator interface {
	// Name labels the strategy in logs and metrics.
	Name() string
	// Authenticate adds credentials for the given attempt to req.
	Authenticate(req *http.Request, attempt *Attempt) error
	// ConsumesPayload reports whether the decision reads the first
	// response body. The protocol buffers the body first when it does.
	ConsumesPayload() bool
}

// Strategy decides without blocking: it calls exactly one of retry or
// notRetry, on any goroutine, at any later time.
type Strategy interface {
	Authenticator
	RetryIfShould(result Result, retry func(), notRetry func())
}

// Lifecycle is implemented by strategies that hold resources, such as
// signing keys loaded from disk.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Result is the outcome of the first attempt.
type Result struct {
	Request  *http.Request
	Response *http.Response
	// Body is the buffered first response body when the strategy
	// consumes the payload.
	Body    []byte
	Err     error
	Attempt *Attempt
}

// StatusCode returns the response status, or 0 on a transport failure.
func (r Result) StatusCode() int {
	if r.Err != nil || r.Response == nil {
		return 0
	}
	return r.Response.StatusCode
}

// Attempt is the state of one logical request across its first send and
// optional retry.
type Attempt struct {
	mu     sync.Mutex
	number int
	values map[string]any
}

// NewAttempt returns the state for a first attempt.
func NewAttempt() *Attempt {
	return &Attempt{number: 1}
}

// Number is 1 for the first send and 2 for the retry.
func (a *Attempt) Number() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.number
}

// Retrying reports whether this is the retry.
func (a *Attempt) Retrying() bool { return a.Number() > 1 }

// Advance moves the attempt to the retry.
func (a *Attempt) Advance() {
	a.mu.Lock()
	a.number++
	a.mu.Unlock()
}

// Set stores strategy-private state.
func (a *Attempt) Set(key string, v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values == nil {
		a.values = make(map[string]any)
	}
	a.values[key] = v
}

// Get returns strategy-private state.
func (a *Attempt) Get(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.values[key]
	return v, ok
}

// Bind returns the non-blocking form of a. Strategies that only implement
// the blocking contract are wrapped by the compatibility adapter.
func Bind(a Authenticator) (Strategy, error) {
	switch s := a.(type) {
	case nil:
		return nil, nil
	case Strategy:
		return s, nil
	case BlockingStrategy:
		return adaptBlocking(s), nil
	default:
		return nil, fmt.Errorf("auth: %s implements neither RetryIfShould nor ShouldRetry", a.Name())
	}
}
