package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/ranchkit/fetch"
	"github.com/kbukum/ranchkit/httpclient"
)

type getOptions struct {
	method        string
	data          string
	headers       []string
	query         []string
	cacheKey      string
	cacheDuration time.Duration
	retries       int
	retryDelay    time.Duration
	timeout       time.Duration
	repeat        int
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	o := &getOptions{}
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Request an API path and print the JSON response",
		Long: `Request a path relative to the API base URL with the stored session
token. Failed requests are retried with a linear backoff. With --cache-key,
GET responses are cached for --cache-duration and repeated requests within
the same run are served from the cache.

Examples:
  ranchctl get /api/ranches
  ranchctl get /api/ranches/42 --retries 3 --retry-delay 500ms
  ranchctl get /api/ranches -X POST -d '{"name":"North Pasture"}'
  ranchctl get /api/ranches --cache-key ranches --repeat 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, opts)
			if err != nil {
				return err
			}
			if err := rt.useAPI(); err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) error {
				return rt.get(ctx, args[0], o)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.method, "method", "X", http.MethodGet, "HTTP method")
	f.StringVarP(&o.data, "data", "d", "", "Request body (JSON)")
	f.StringArrayVarP(&o.headers, "header", "H", nil, "Extra header as Key: Value (repeatable)")
	f.StringArrayVarP(&o.query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	f.StringVar(&o.cacheKey, "cache-key", "", "Cache GET responses under this key")
	f.DurationVar(&o.cacheDuration, "cache-duration", fetch.DefaultCacheDuration, "Lifetime of cached responses")
	f.IntVar(&o.retries, "retries", 0, "Retries after a failed request")
	f.DurationVar(&o.retryDelay, "retry-delay", fetch.DefaultRetryDelay, "Linear backoff step between retries")
	f.DurationVar(&o.timeout, "timeout", fetch.DefaultTimeout, "Timeout of each attempt")
	f.IntVar(&o.repeat, "repeat", 1, "Run the request this many times")
	return cmd
}

func (rt *runtime) get(ctx context.Context, path string, o *getOptions) error {
	adapter := rt.api.Adapter()

	cfg := fetch.Config{
		URL:           path,
		Method:        o.method,
		CacheKey:      o.cacheKey,
		CacheDuration: o.cacheDuration,
		Retries:       o.retries,
		RetryDelay:    o.retryDelay,
		Timeout:       o.timeout,
	}
	if o.data != "" {
		if !json.Valid([]byte(o.data)) {
			return rt.print.fail("invalid request body", "--data must be valid JSON.")
		}
		cfg.Body = json.RawMessage(o.data)
	}

	overrides, err := requestOverrides(o.headers, o.query)
	if err != nil {
		return rt.print.fail("invalid flag", err.Error())
	}

	exec, err := fetch.New[json.RawMessage](cfg,
		fetch.WithAdapter[json.RawMessage](adapter),
		fetch.WithMetrics[json.RawMessage](rt.metrics))
	if err != nil {
		return rt.print.fail("invalid request", err.Error())
	}

	repeat := max(o.repeat, 1)
	for i := 0; i < repeat; i++ {
		res := exec.Execute(ctx, overrides...)
		switch {
		case res.Canceled:
			return ctx.Err()
		case res.Err != nil:
			return rt.requestError(path, res.Err, exec.RetryCount())
		}
		if res.FromCache {
			rt.print.step("served from cache (%s)", o.cacheKey)
		}
		if len(res.Data) == 0 {
			rt.print.success("%s %s: no content", strings.ToUpper(o.method), path)
			continue
		}
		rt.print.prettyJSON(res.Data)
	}
	return nil
}

func (rt *runtime) requestError(path string, err error, retries int) error {
	explanation := err.Error()
	if retries > 0 {
		explanation = fmt.Sprintf("%s (after %d retries)", explanation, retries)
	}
	switch {
	case httpclient.IsAuth(err):
		return rt.print.fail("request unauthorized", explanation,
			"Sign in first:\n  ranchctl login --email you@example.com")
	case httpclient.IsNotFound(err):
		return rt.print.fail(path+" not found", explanation)
	case httpclient.IsCircuitOpen(err):
		return rt.print.fail("API unavailable", explanation,
			"Requests resume after api.circuit_breaker.open_timeout.")
	default:
		return rt.print.fail("request failed", explanation)
	}
}

func requestOverrides(headers, query []string) ([]fetch.Override, error) {
	var out []fetch.Override
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("header %q is not Key: Value", h)
		}
		out = append(out, fetch.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	for _, q := range query {
		key, value, ok := strings.Cut(q, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("query %q is not key=value", q)
		}
		out = append(out, fetch.WithQuery(key, value))
	}
	return out, nil
}
