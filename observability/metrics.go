package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Request outcomes recorded by the request executor.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeCache    = "cache"
)

// Metrics holds the instruments shared by fetch and live. Methods on a nil
// *Metrics do nothing.
type Metrics struct {
	requestTotal     metric.Int64Counter
	requestDuration  metric.Float64Histogram
	cacheLookups     metric.Int64Counter
	retryTotal       metric.Int64Counter
	liveMessages     metric.Int64Counter
	liveReconnects   metric.Int64Counter
	liveConnections  metric.Int64UpDownCounter
	liveQueueDropped metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.requestTotal, err = meter.Int64Counter("fetch.requests",
		metric.WithDescription("Executions by method and outcome")); err != nil {
		return nil, fmt.Errorf("creating fetch.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("fetch.duration",
		metric.WithDescription("Execution duration including retries"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating fetch.duration histogram: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter("fetch.cache.lookups",
		metric.WithDescription("Cache lookups by result")); err != nil {
		return nil, fmt.Errorf("creating fetch.cache.lookups counter: %w", err)
	}
	if m.retryTotal, err = meter.Int64Counter("fetch.retries",
		metric.WithDescription("Retries scheduled after a failed attempt")); err != nil {
		return nil, fmt.Errorf("creating fetch.retries counter: %w", err)
	}
	if m.liveMessages, err = meter.Int64Counter("live.messages",
		metric.WithDescription("Live messages by direction and type")); err != nil {
		return nil, fmt.Errorf("creating live.messages counter: %w", err)
	}
	if m.liveReconnects, err = meter.Int64Counter("live.reconnects",
		metric.WithDescription("Scheduled reconnect attempts")); err != nil {
		return nil, fmt.Errorf("creating live.reconnects counter: %w", err)
	}
	if m.liveConnections, err = meter.Int64UpDownCounter("live.connections.open",
		metric.WithDescription("Currently open live connections")); err != nil {
		return nil, fmt.Errorf("creating live.connections.open counter: %w", err)
	}
	if m.liveQueueDropped, err = meter.Int64Counter("live.messages.dropped",
		metric.WithDescription("Outbound messages dropped while disconnected")); err != nil {
		return nil, fmt.Errorf("creating live.messages.dropped counter: %w", err)
	}
	return &m, nil
}

// RecordRequest records one finished execution.
func (m *Metrics) RecordRequest(ctx context.Context, method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
	))
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRetry records a retry about to be attempted.
func (m *Metrics) RecordRetry(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordLiveMessage records a live message; direction is "in" or "out".
func (m *Metrics) RecordLiveMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.liveMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}

// RecordReconnect records a scheduled reconnect.
func (m *Metrics) RecordReconnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.liveReconnects.Add(ctx, 1)
}

// RecordConnection adds delta (+1 on open, -1 on close) to the open gauge.
func (m *Metrics) RecordConnection(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.liveConnections.Add(ctx, delta)
}

// RecordDropped records an outbound message dropped while disconnected.
func (m *Metrics) RecordDropped(ctx context.Context, msgType string) {
	if m == nil {
		return
	}
	m.liveQueueDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("type", msgType)))
}
