package observability

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/ranchkit/component"
)

// MeterComponent owns the meter provider lifecycle.
type MeterComponent struct {
	config   MeterConfig
	provider *sdkmetric.MeterProvider
}

var _ component.Component = (*MeterComponent)(nil)
var _ component.Describable = (*MeterComponent)(nil)

// NewMeterComponent creates a component that calls InitMeter on Start.
func NewMeterComponent(cfg MeterConfig) *MeterComponent {
	return &MeterComponent{config: cfg}
}

func (c *MeterComponent) Name() string { return "metrics" }

func (c *MeterComponent) Start(ctx context.Context) error {
	mp, err := InitMeter(ctx, c.config)
	if err != nil {
		return err
	}
	c.provider = mp
	return nil
}

// Stop flushes and shuts down the provider.
func (c *MeterComponent) Stop(ctx context.Context) error {
	if c.provider == nil {
		return nil
	}
	return c.provider.Shutdown(ctx)
}

func (c *MeterComponent) Health(_ context.Context) component.Health {
	if c.provider == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *MeterComponent) Describe() component.Description {
	details := "in-process"
	if c.config.Endpoint != "" {
		details = "otlp " + c.config.Endpoint
	}
	return component.Description{Type: "metrics", Details: details}
}
