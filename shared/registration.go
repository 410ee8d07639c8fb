package shared

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/httpconnector/logger"
)

// Resource is anything a Registry can share.
type Resource interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Registration is the registry's record for one key: the resource, its
// reference count and its start state.
type Registration[R Resource] struct {
	key      string
	resource R
	owner    *Registry[R]
	slot     *slot[R]

	mu      sync.Mutex
	refs    int
	handles int
	state   State
}

// Key returns the registration key.
func (g *Registration[R]) Key() string { return g.key }

// Resource returns the shared resource.
func (g *Registration[R]) Resource() R { return g.resource }

// RefCount returns the number of outstanding starts.
func (g *Registration[R]) RefCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refs
}

// Handles returns the number of open handles.
func (g *Registration[R]) Handles() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handles
}

// State returns the current start state.
func (g *Registration[R]) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// start increments the count on success only. The resource is started when
// nothing holds it or a previous start failed.
func (g *Registration[R]) start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refs == 0 || g.state != StateStarted {
		g.state = StateStarting
		if err := call(ctx, g.resource.Start); err != nil {
			g.state = StateFailedStart
			g.owner.log.Warn("shared resource start failed", logger.Fields(
				logger.FieldClientKey, g.key,
				logger.FieldError, err.Error(),
			))
			return g.owner.startErr(g.key, err)
		}
		g.state = StateStarted
		g.owner.metrics.ResourceStarted(ctx, g.owner.name, g.key)
		g.owner.log.Debug("shared resource started", logger.Fields(logger.FieldClientKey, g.key))
	}
	g.refs++
	return nil
}

// stop decrements the count, stopping the resource on the last stop.
// Extra stops are logged and ignored.
func (g *Registration[R]) stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refs == 0 {
		g.owner.log.Warn("shared resource stopped more times than started", logger.Fields(
			logger.FieldClientKey, g.key,
			logger.FieldState, g.state.String(),
		))
		return nil
	}
	g.refs--
	if g.refs > 0 {
		return nil
	}

	err := call(ctx, g.resource.Stop)
	g.state = StateIdle
	g.owner.metrics.ResourceStopped(ctx, g.owner.name, g.key)
	g.owner.log.Debug("shared resource stopped", logger.Fields(logger.FieldClientKey, g.key))
	if err != nil {
		return fmt.Errorf("shared: stop %s: %w", g.key, err)
	}
	return nil
}

// acquire is called with the slot lock held.
func (g *Registration[R]) acquire() {
	g.mu.Lock()
	g.handles++
	g.mu.Unlock()
}

// release reports whether the registration is now unused.
func (g *Registration[R]) release() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handles > 0 {
		g.handles--
	}
	return g.handles == 0 && g.refs == 0
}

func (g *Registration[R]) unused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handles == 0 && g.refs == 0
}

// call runs fn, turning a panic into an error so state stays consistent.
func call(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
