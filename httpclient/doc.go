// Package httpclient is the single-attempt HTTP adapter under the request
// executor. It resolves paths against a base URL, applies default JSON
// headers and bearer auth, encodes bodies and classifies failures into
// *Error. Retries, caching and timeouts per attempt belong to the fetch
// package.
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080/api",
//	    Auth:    httpclient.BearerTokenFunc(sess.Token),
//	})
//	resp, err := a.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/ranches"})
package httpclient
