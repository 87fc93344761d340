package live

import (
	"context"

	"github.com/kbukum/ranchkit/component"
)

// Component adapts a Manager to the component lifecycle.
type Component struct {
	m *Manager
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent wraps m.
func NewComponent(m *Manager) *Component {
	return &Component{m: m}
}

// Manager returns the wrapped manager.
func (c *Component) Manager() *Manager { return c.m }

// Name returns the component name.
func (c *Component) Name() string { return "live" }

// Start connects. With auto-reconnect enabled a failed first dial is left to
// the reconnect schedule instead of failing startup.
func (c *Component) Start(ctx context.Context) error {
	err := c.m.Connect(ctx)
	if err != nil && c.m.cfg.AutoReconnect && c.m.cfg.MaxReconnectAttempts > 0 {
		return nil
	}
	return err
}

// Stop disconnects.
func (c *Component) Stop(_ context.Context) error {
	c.m.Disconnect()
	return nil
}

// Health maps the connection state to a health status.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name()}
	switch c.m.State() {
	case StateOpen:
		h.Status = component.StatusHealthy
	case StateConnecting:
		h.Status = component.StatusDegraded
		h.Message = "connecting"
	default:
		h.Status = component.StatusUnhealthy
		h.Message = "closed"
		if err := c.m.ConnectionError(); err != nil {
			h.Message = err.Error()
		}
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{Name: "Live", Type: "live", Details: c.m.URL()}
}
