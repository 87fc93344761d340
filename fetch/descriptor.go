package fetch

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// Descriptor is the fully merged request of one execution. It is built once
// per call and reused unchanged by every retry.
type Descriptor struct {
	Method     string
	URL        string
	Headers    map[string]string
	Query      map[string]string
	Body       any
	Timeout    time.Duration
	CacheKey   string
	Retries    int
	RetryDelay time.Duration
}

// Cacheable reports whether the descriptor reads and writes the cache.
func (d Descriptor) Cacheable() bool {
	return d.CacheKey != "" && d.Method == http.MethodGet
}

// Override adjusts the descriptor of a single call.
type Override func(*Descriptor)

// WithMethod sets the HTTP method.
func WithMethod(method string) Override {
	return func(d *Descriptor) { d.Method = strings.ToUpper(method) }
}

// WithURL replaces the request URL.
func WithURL(url string) Override {
	return func(d *Descriptor) { d.URL = url }
}

// WithHeader sets one header.
func WithHeader(key, value string) Override {
	return func(d *Descriptor) { d.Headers[key] = value }
}

// WithHeaders merges headers over the base headers.
func WithHeaders(headers map[string]string) Override {
	return func(d *Descriptor) {
		for k, v := range headers {
			d.Headers[k] = v
		}
	}
}

// WithBody replaces the request body.
func WithBody(body any) Override {
	return func(d *Descriptor) { d.Body = body }
}

// WithQuery sets one query parameter.
func WithQuery(key, value string) Override {
	return func(d *Descriptor) { d.Query[key] = value }
}

func (c Config) descriptor(overrides []Override) Descriptor {
	d := Descriptor{
		Method:     c.Method,
		URL:        c.URL,
		Headers:    make(map[string]string, len(c.Headers)),
		Query:      make(map[string]string),
		Body:       c.Body,
		Timeout:    c.Timeout,
		CacheKey:   c.CacheKey,
		Retries:    c.Retries,
		RetryDelay: c.RetryDelay,
	}
	for k, v := range c.Headers {
		d.Headers[k] = v
	}
	for _, o := range overrides {
		if o != nil {
			o(&d)
		}
	}
	return d
}

// replayableBody reads a streaming body into memory so every attempt sends
// the same bytes.
func replayableBody(body any) (any, error) {
	r, ok := body.(io.Reader)
	if !ok {
		return body, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return data, nil
}
