package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/ranchkit/logger"
	"github.com/kbukum/ranchkit/resilience"
)

// Adapter sends single HTTP exchanges with the configured defaults.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	breaker    *resilience.Breaker
	limiter    *resilience.RateLimiter
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.Get("httpclient"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if cfg.CircuitBreaker != nil {
		a.breaker = resilience.NewBreaker(a.breakerConfig(*cfg.CircuitBreaker))
	}
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		if rl.Name == "" {
			rl.Name = cfg.Name
		}
		a.limiter = resilience.NewRateLimiter(rl)
	}
	return a, nil
}

func (a *Adapter) breakerConfig(bc resilience.BreakerConfig) resilience.BreakerConfig {
	if bc.Name == "" {
		bc.Name = a.config.Name
	}
	if bc.IsFailure == nil {
		bc.IsFailure = IsRetryable
	}
	onChange := bc.OnStateChange
	bc.OnStateChange = func(name string, from, to resilience.BreakerState) {
		a.log.Warn("circuit breaker state changed", logger.Fields(
			"breaker", name, "from", from.String(), "to", to.String()))
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	return bc
}

// Do executes one HTTP exchange. A non-2xx status returns the response
// together with a *Error. With a rate limit configured Do first waits for
// its turn; with a circuit breaker configured an open circuit fails with
// ErrCodeCircuitOpen without sending anything.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, classifyTransport(ctx, err)
		}
	}
	if a.breaker == nil {
		return a.exchange(ctx, req)
	}

	var resp *Response
	err := a.breaker.Execute(func() error {
		var err error
		resp, err = a.exchange(ctx, req)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, NewCircuitOpenError(a.config.Name)
	}
	return resp, err
}

// BreakerState reports the circuit breaker state, closed when none is
// configured.
func (a *Adapter) BreakerState() resilience.BreakerState {
	if a.breaker == nil {
		return resilience.BreakerClosed
	}
	return a.breaker.State()
}

func (a *Adapter) exchange(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, fmt.Errorf("read response body: %w", err))
	}

	a.log.Debug("http exchange", logger.Fields(
		logger.FieldMethod, httpReq.Method,
		logger.FieldURL, httpReq.URL.String(),
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	result := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       body,
	}
	if classErr := ClassifyStatus(resp.StatusCode, resp.Status, body); classErr != nil {
		return result, classErr
	}
	return result, nil
}

// ResolveURL joins path onto the base URL unless path is absolute.
func (a *Adapter) ResolveURL(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Config returns the adapter's effective configuration.
func (a *Adapter) Config() Config {
	return a.config
}

// Close releases idle connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewRequestError("encode body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.ResolveURL(req.Path), body)
	if err != nil {
		return nil, NewRequestError("create request", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	if err := auth.apply(ctx, httpReq); err != nil {
		return nil, NewRequestError("resolve auth token", err)
	}
	return httpReq, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return v, nil
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}

func classifyTransport(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return NewCanceledError(ctx.Err())
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return NewTimeoutError(err)
		}
		return NewConnectionError(err)
	}
}
