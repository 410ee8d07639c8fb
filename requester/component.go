package requester

import (
	"context"
	"fmt"

	"github.com/kbukum/httpconnector/component"
	"github.com/kbukum/httpconnector/shared"
)

// Component runs a Client under a component.Registry.
type Component struct {
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps c.
func NewComponent(c *Client) *Component {
	return &Component{client: c}
}

// Name returns the component name.
func (c *Component) Name() string { return "requester:" + c.client.Name() }

// Client returns the wrapped client.
func (c *Component) Client() *Client { return c.client }

// Start starts the client.
func (c *Component) Start(ctx context.Context) error { return c.client.Start(ctx) }

// Stop stops the client and disposes it.
func (c *Component) Stop(ctx context.Context) error {
	err := c.client.Stop(ctx)
	c.client.Close()
	return err
}

// Health reports the state of the shared transport.
func (c *Component) Health(_ context.Context) component.Health {
	state := c.client.handle.Registration().State()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if state != shared.StateStarted {
		h.Status = component.StatusUnhealthy
		h.Message = "transport " + state.String()
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	d := c.client.defaults
	return component.Description{
		Type:    "requester",
		Details: fmt.Sprintf("%s timeout=%s auth=%s", c.client.params, d.responseTimeout, strategyName(c.client.authn)),
	}
}
