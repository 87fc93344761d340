package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/httpclient"
	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/observability"
	"github.com/kbukum/ranchkit/resilience"
)

// Option configures an Executor.
type Option[T any] func(*Executor[T])

// WithAdapter sets the HTTP adapter. The default adapter has no base URL.
func WithAdapter[T any](a *httpclient.Adapter) Option[T] {
	return func(e *Executor[T]) { e.adapter = a }
}

// WithCache shares cache with other executors. By default every executor
// has a private cache.
func WithCache[T any](cache *Cache) Option[T] {
	return func(e *Executor[T]) { e.cache = cache }
}

// WithTransform reshapes decoded data before it is stored. An error or panic
// fails the execution with TRANSFORM_FAILED and is not retried.
func WithTransform[T any](fn func(T) (T, error)) Option[T] {
	return func(e *Executor[T]) { e.transform = fn }
}

// WithDecoder replaces the default JSON decoding of response bodies.
func WithDecoder[T any](fn func([]byte) (T, error)) Option[T] {
	return func(e *Executor[T]) { e.decode = fn }
}

// WithOnSuccess is called with the stored data after a successful network
// execution.
func WithOnSuccess[T any](fn func(T)) Option[T] {
	return func(e *Executor[T]) { e.onSuccess = fn }
}

// WithOnError is called with the surfaced error once retries are exhausted.
func WithOnError[T any](fn func(error)) Option[T] {
	return func(e *Executor[T]) { e.onError = fn }
}

// WithMetrics records executions, cache lookups and retries.
func WithMetrics[T any](m *observability.Metrics) Option[T] {
	return func(e *Executor[T]) { e.metrics = m }
}

// Executor runs requests described by its Config.
type Executor[T any] struct {
	cfg       Config
	adapter   *httpclient.Adapter
	cache     *Cache
	transform func(T) (T, error)
	decode    func([]byte) (T, error)
	onSuccess func(T)
	onError   func(error)
	metrics   *observability.Metrics
	log       *logger.Logger

	mu         sync.Mutex
	state      State[T]
	generation uint64
	cancel     context.CancelFunc
	retryCount int
}

// New creates an Executor. It fails only on invalid configuration.
func New[T any](cfg Config, opts ...Option[T]) (*Executor[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	body, err := replayableBody(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read config body: %w", err)
	}
	cfg.Body = body

	e := &Executor[T]{
		cfg:    cfg,
		decode: decodeJSON[T],
		log:    logger.Get("fetch"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.adapter == nil {
		a, err := httpclient.New(httpclient.Config{Name: "fetch"})
		if err != nil {
			return nil, err
		}
		e.adapter = a
	}
	if e.cache == nil {
		e.cache = NewCache(cfg.CacheDuration)
	}
	return e, nil
}

// Config returns the executor's base configuration.
func (e *Executor[T]) Config() Config { return e.cfg }

// Cache returns the executor's cache.
func (e *Executor[T]) Cache() *Cache { return e.cache }

// Execute runs the request, cancelling any execution still in flight.
func (e *Executor[T]) Execute(ctx context.Context, overrides ...Override) Result[T] {
	return e.run(ctx, false, overrides)
}

// Refresh evicts the executor's cache entry and re-runs the request as a
// background revalidation: Validating is set and the data is kept while it
// runs.
func (e *Executor[T]) Refresh(ctx context.Context) Result[T] {
	if e.cfg.CacheKey != "" {
		e.cache.Delete(e.cfg.CacheKey)
	}
	return e.run(ctx, true, nil)
}

// Mutate replaces the data, and the cache entry for keyed GET executors,
// with data. With revalidate it starts a background execution whose result
// is delivered on the returned channel; otherwise the channel yields a
// success result carrying data. The channel is closed after one value.
func (e *Executor[T]) Mutate(ctx context.Context, data T, revalidate bool) <-chan Result[T] {
	e.mu.Lock()
	e.state.Data = data
	e.state.HasData = true
	e.state.FromCache = false
	e.state.UpdatedAt = time.Now()
	if revalidate {
		e.state.Validating = true
	}
	e.mu.Unlock()

	if d := e.cfg.descriptor(nil); d.Cacheable() {
		e.cache.SetWithTTL(d.CacheKey, data, e.cfg.CacheDuration)
	}

	ch := make(chan Result[T], 1)
	if !revalidate {
		ch <- Result[T]{Success: true, Data: data}
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		ch <- e.run(ctx, true, nil)
	}()
	return ch
}

// Cancel aborts the execution in flight, if any. It is safe to call at any
// time and more than once.
func (e *Executor[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// ClearCache removes the given keys, or every entry when none are given.
func (e *Executor[T]) ClearCache(keys ...string) {
	if len(keys) == 0 {
		e.cache.Clear()
		return
	}
	for _, k := range keys {
		e.cache.Delete(k)
	}
}

// State returns a snapshot of the executor state.
func (e *Executor[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RetryCount returns the number of retries spent by the current execution.
// It is reset when an execution starts and when one succeeds.
func (e *Executor[T]) RetryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retryCount
}

func (e *Executor[T]) run(ctx context.Context, background bool, overrides []Override) Result[T] {
	d := e.cfg.descriptor(overrides)
	start := time.Now()

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	gen := e.generation
	e.cancel = cancel
	e.retryCount = 0
	e.mu.Unlock()

	if d.Cacheable() && !background {
		if res, ok := e.fromCache(ctx, gen, d); ok {
			return res
		}
	}

	e.mu.Lock()
	e.state.Err = nil
	e.state.Validating = background
	if !background {
		e.state.Phase = PhaseLoading
	}
	e.mu.Unlock()

	body, bodyErr := replayableBody(d.Body)
	if bodyErr != nil {
		bodyErr = httpclient.NewRequestError("read request body", bodyErr)
	}
	d.Body = body

	data, err := resilience.Retry(attemptCtx, resilience.RetryConfig{
		MaxAttempts: d.Retries + 1,
		Backoff:     resilience.LinearBackoff(d.RetryDelay),
		RetryIf: func(err error) bool {
			return bodyErr == nil && attemptCtx.Err() == nil && retryable(err)
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			e.mu.Lock()
			if e.generation == gen {
				e.retryCount++
			}
			e.mu.Unlock()
			e.metrics.RecordRetry(ctx, d.Method)
			e.log.Debug("retrying request", logger.Fields(
				logger.FieldMethod, d.Method,
				logger.FieldURL, d.URL,
				logger.FieldAttempt, attempt,
				logger.FieldDelay, delay.Milliseconds(),
				logger.FieldError, err.Error(),
			))
		},
	}, func(int) (T, error) {
		if bodyErr != nil {
			var zero T
			return zero, bodyErr
		}
		return e.attempt(attemptCtx, d)
	})

	e.mu.Lock()
	if e.generation != gen || attemptCtx.Err() != nil {
		if e.generation == gen {
			e.settleCanceledLocked()
		}
		e.mu.Unlock()
		e.metrics.RecordRequest(ctx, d.Method, observability.OutcomeCanceled, time.Since(start))
		return Result[T]{Canceled: true}
	}
	e.cancel = nil
	e.state.Validating = false
	e.state.FromCache = false
	e.state.UpdatedAt = time.Now()

	if err != nil {
		e.state.Phase = PhaseError
		e.state.Err = err
		e.mu.Unlock()

		e.metrics.RecordRequest(ctx, d.Method, observability.OutcomeError, time.Since(start))
		e.log.Warn("request failed", logger.Fields(
			logger.FieldMethod, d.Method,
			logger.FieldURL, d.URL,
			logger.FieldError, err.Error(),
		))
		if e.onError != nil {
			e.onError(err)
		}
		return Result[T]{Err: err}
	}

	if d.Cacheable() {
		e.cache.SetWithTTL(d.CacheKey, data, e.cfg.CacheDuration)
	}
	e.retryCount = 0
	e.state.Phase = PhaseSuccess
	e.state.Data = data
	e.state.HasData = true
	e.mu.Unlock()

	e.metrics.RecordRequest(ctx, d.Method, observability.OutcomeSuccess, time.Since(start))
	if e.onSuccess != nil {
		e.onSuccess(data)
	}
	return Result[T]{Success: true, Data: data}
}

func (e *Executor[T]) fromCache(ctx context.Context, gen uint64, d Descriptor) (Result[T], bool) {
	v, ok := e.cache.Get(d.CacheKey)
	data, typed := v.(T)
	e.metrics.RecordCacheLookup(ctx, ok && typed)
	if !ok {
		return Result[T]{}, false
	}
	if !typed {
		e.log.Debug("cached value has another type", logger.Fields(
			logger.FieldCacheKey, d.CacheKey,
			"type", fmt.Sprintf("%T", v),
		))
		return Result[T]{}, false
	}

	e.mu.Lock()
	if e.generation == gen {
		e.cancel = nil
		e.state.Phase = PhaseSuccess
		e.state.Data = data
		e.state.HasData = true
		e.state.Err = nil
		e.state.Validating = false
		e.state.FromCache = true
		e.state.UpdatedAt = time.Now()
	}
	e.mu.Unlock()

	e.metrics.RecordRequest(ctx, d.Method, observability.OutcomeCache, 0)
	e.log.Debug("cache hit", logger.Fields(logger.FieldCacheKey, d.CacheKey))
	return Result[T]{Success: true, Data: data, FromCache: true}, true
}

// settleCanceledLocked leaves the loading phase after the current execution
// was cancelled, without recording an error.
func (e *Executor[T]) settleCanceledLocked() {
	e.cancel = nil
	e.state.Validating = false
	if e.state.Phase == PhaseLoading {
		if e.state.HasData {
			e.state.Phase = PhaseSuccess
		} else {
			e.state.Phase = PhaseIdle
		}
	}
}

// attempt performs one network exchange bounded by the descriptor timeout.
func (e *Executor[T]) attempt(ctx context.Context, d Descriptor) (T, error) {
	var zero T

	actx, cancel := ctx, context.CancelFunc(func() {})
	if d.Timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, d.Timeout)
	}
	defer cancel()

	resp, err := e.adapter.Do(actx, httpclient.Request{
		Method:  d.Method,
		Path:    d.URL,
		Headers: d.Headers,
		Query:   d.Query,
		Body:    d.Body,
	})
	if err != nil {
		return zero, err
	}

	data, err := e.decode(resp.Body)
	if err != nil {
		return zero, apperrors.MalformedMessage(err).WithDetail("status", resp.StatusCode)
	}
	return e.applyTransform(data)
}

func (e *Executor[T]) applyTransform(data T) (out T, err error) {
	if e.transform == nil {
		return data, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.TransformFailed(fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = e.transform(data)
	if err != nil {
		return out, apperrors.TransformFailed(err)
	}
	return out, nil
}

// retryable reports whether a failed attempt may be retried: network,
// status and timeout failures are. Cancellation, an open circuit and local
// decoding or transform failures are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || httpclient.IsCanceled(err) || httpclient.IsCircuitOpen(err) {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeTransformFailed, apperrors.ErrCodeMalformedMessage:
			return false
		}
	}
	return true
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	if len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	err := json.Unmarshal(body, &v)
	return v, err
}
