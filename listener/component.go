package listener

import (
	"context"
	"fmt"

	"github.com/kbukum/httpconnector/component"
	"github.com/kbukum/httpconnector/shared"
)

// Component runs a Listener under a component.Registry.
type Component struct {
	listener *Listener
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps l.
func NewComponent(l *Listener) *Component {
	return &Component{listener: l}
}

// Name returns the component name.
func (c *Component) Name() string { return "listener:" + c.listener.Name() }

// Listener returns the wrapped listener.
func (c *Component) Listener() *Listener { return c.listener }

// Start starts the listener.
func (c *Component) Start(ctx context.Context) error { return c.listener.Start(ctx) }

// Stop stops the listener and disposes it.
func (c *Component) Stop(ctx context.Context) error {
	err := c.listener.Stop(ctx)
	c.listener.Close()
	return err
}

// Health reports whether the shared server is serving.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	state := c.listener.handle.Registration().State()
	if state != shared.StateStarted || !c.listener.Server().Running() {
		h.Status = component.StatusUnhealthy
		h.Message = "server " + state.String()
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	srv := c.listener.Server()
	scheme := "http"
	if srv.Secure() {
		scheme = "https"
	}
	return component.Description{
		Type:    "listener",
		Details: fmt.Sprintf("%s://%s%s", scheme, srv.Addr(), c.listener.BasePath()),
	}
}
