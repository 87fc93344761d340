package kvstore

import (
	"context"
	"fmt"

	"github.com/kbukum/ranchkit/component"
	"github.com/kbukum/ranchkit/logger"
)

// Component opens a Store on Start and closes it on Stop.
type Component struct {
	cfg   Config
	store Store
	log   *logger.Logger
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a store component for use with the component registry.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.Get("kvstore")}
}

// Store returns the opened store, or nil if not started.
func (c *Component) Store() Store {
	return c.store
}

// Name returns the component name.
func (c *Component) Name() string { return "kvstore" }

// Start opens the configured backend.
func (c *Component) Start(_ context.Context) error {
	store, err := Open(c.cfg)
	if err != nil {
		return fmt.Errorf("kvstore start: %w", err)
	}
	c.store = store
	c.log.Debug("store opened", logger.Fields("driver", c.cfg.Driver))
	return nil
}

// Stop closes the store.
func (c *Component) Stop(_ context.Context) error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// Health reports whether the store is open.
func (c *Component) Health(_ context.Context) component.Health {
	if c.store == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "store not open"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := c.cfg.Driver
	switch c.cfg.Driver {
	case DriverLevelDB:
		details += " " + c.cfg.Path
	case DriverRedis:
		details += " " + c.cfg.Addr
	}
	if c.cfg.EncryptionKey != "" {
		details += " (encrypted)"
	}
	return component.Description{Name: "Store", Type: "kvstore", Details: details}
}
