package transport

import (
	"context"
	"net/http"
	"sync"
)

// Future is the eventual result of a Send. It completes exactly once.
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	resp      *http.Response
	err       error
	callbacks []func(*http.Response, error)
}

// NewFuture returns a pending future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns a future that already holds resp and err.
func Completed(resp *http.Response, err error) *Future {
	f := NewFuture()
	f.Complete(resp, err)
	return f
}

// Complete sets the result and runs the registered callbacks on the calling
// goroutine. It returns false if the future was already complete.
func (f *Future) Complete(resp *http.Response, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.resp, f.err = resp, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(resp, err)
	}
	return true
}

// OnComplete registers cb. If the future is already complete, cb runs
// immediately on the calling goroutine.
func (f *Future) OnComplete(cb func(*http.Response, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	resp, err := f.resp, f.err
	f.mu.Unlock()
	cb(resp, err)
}

// Done is closed when the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx is done. Giving up on ctx
// does not cancel the underlying send.
func (f *Future) Await(ctx context.Context) (*http.Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
