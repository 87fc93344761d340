package httpclient

import (
	"context"

	"github.com/kbukum/ranchkit/component"
	"github.com/kbukum/ranchkit/resilience"
)

// Component wraps an Adapter with lifecycle management.
type Component struct {
	adapter *Adapter
	config  Config
	opts    []Option
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP adapter component. The adapter is built
// in Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "http"
	}
	return c.config.Name
}

// Start initializes the HTTP adapter.
func (c *Component) Start(_ context.Context) error {
	a, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.adapter = a
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.adapter != nil {
		return c.adapter.Close(ctx)
	}
	return nil
}

// Health reports unhealthy until Start has run and degraded while the
// circuit breaker is not closed.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.adapter == nil:
		h.Status = component.StatusUnhealthy
	case c.adapter.BreakerState() != resilience.BreakerClosed:
		h.Status = component.StatusDegraded
		h.Message = "circuit " + c.adapter.BreakerState().String()
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{Type: "http", Details: c.config.BaseURL}
}

// Adapter returns the underlying HTTP adapter. Must be called after Start.
func (c *Component) Adapter() *Adapter {
	return c.adapter
}
