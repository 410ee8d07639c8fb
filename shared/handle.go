package shared

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Handle is one consumer's view of a shared registration. Handles for the
// same key share the registration's reference count.
type Handle[R Resource] struct {
	reg    *Registration[R]
	closed atomic.Bool
}

// Key returns the registration key.
func (h *Handle[R]) Key() string { return h.reg.key }

// Resource returns the shared resource.
func (h *Handle[R]) Resource() R { return h.reg.resource }

// Registration returns the shared registration.
func (h *Handle[R]) Registration() *Registration[R] { return h.reg }

// Start takes a reference, starting the resource if this is the first one
// or the previous start failed. A failed start takes no reference.
func (h *Handle[R]) Start(ctx context.Context) error {
	if h.closed.Load() {
		return fmt.Errorf("shared: start on closed handle %s", h.reg.key)
	}
	return h.reg.start(ctx)
}

// Stop releases a reference, stopping the resource when it was the last.
func (h *Handle[R]) Stop(ctx context.Context) error {
	if h.closed.Load() {
		return fmt.Errorf("shared: stop on closed handle %s", h.reg.key)
	}
	return h.reg.stop(ctx)
}

// Close releases the handle. When no handle remains open and nothing holds
// a reference, the registration is removed from its registry. Close is
// idempotent and does not stop the resource.
func (h *Handle[R]) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	if h.reg.release() {
		h.reg.owner.evict(h.reg)
	}
}
