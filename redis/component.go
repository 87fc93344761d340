package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/ranchkit/component"
	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/logger"
)

// DefaultSlowPing is the round trip above which the connection is reported
// as degraded.
const DefaultSlowPing = 250 * time.Millisecond

// Component owns a Client and reports the round trip to the server as its
// health. Registered ahead of a redis-backed kvstore.Component it fails
// startup early when the server is unreachable.
type Component struct {
	cfg  Config
	slow time.Duration

	client *Client
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a component for cfg.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, slow: DefaultSlowPing, log: logger.Get("redis")}
}

// NewStoreComponent creates a component connected to the same server and
// key prefix as the redis kvstore driver opened from cfg.
func NewStoreComponent(cfg kvstore.Config) *Component {
	cfg.ApplyDefaults()
	return NewComponent(storeConfig(cfg))
}

// Client returns the connected client, or nil before Start.
func (c *Component) Client() *Client { return c.client }

// Store returns a kvstore view of the client, or nil before Start.
func (c *Component) Store() *Store {
	if c.client == nil {
		return nil
	}
	return NewStore(c.client)
}

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start connects and pings once within the dial timeout.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis %s unreachable: %w", c.cfg.Addr, err)
	}
	c.client = client
	c.log.Debug("redis connected", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB))
	return nil
}

// Stop closes the client.
func (c *Component) Stop(_ context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Health pings the server. A round trip slower than the slow-ping threshold
// is degraded.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name()}
	if c.client == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not connected"
		return h
	}

	start := time.Now()
	err := c.client.Ping(ctx)
	rtt := time.Since(start)
	stats := c.client.Unwrap().PoolStats()
	switch {
	case err != nil:
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
	case rtt > c.slow:
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("slow ping %s", rtt.Round(time.Millisecond))
	default:
		h.Status = component.StatusHealthy
		h.Message = fmt.Sprintf("%d conns, %d idle", stats.TotalConns, stats.IdleConns)
	}
	return h
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s db=%d", c.cfg.Addr, c.cfg.DB)
	if c.cfg.KeyPrefix != "" {
		details += " prefix=" + c.cfg.KeyPrefix
	}
	return component.Description{Name: "Redis", Type: "redis", Details: details}
}
