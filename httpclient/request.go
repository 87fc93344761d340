package httpclient

import (
	"encoding/json"
	"net/http"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string
	// Path is appended to the BaseURL unless it is already absolute.
	Path string
	// Headers are request-specific headers, merged over the defaults.
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is sent raw when it is a string or []byte, JSON-encoded otherwise.
	Body any
	// Auth overrides the adapter-level auth for this request.
	Auth *AuthConfig
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
