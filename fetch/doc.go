// Package fetch runs one logical HTTP request with caching, a per-attempt
// timeout, linear-backoff retries and cancellation.
//
// An Executor owns its state: the last data, error and phase, a retry
// counter and the current attempt. Starting a new execution cancels the
// previous one, and a superseded attempt never touches state. Results are
// returned as values; OnSuccess and OnError are optional adapters on top.
//
//	type Ranch struct {
//	    ID   string `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	ranches, err := fetch.New[[]Ranch](fetch.Config{
//	    URL:      "/api/ranches",
//	    CacheKey: "ranches",
//	    Retries:  2,
//	}, fetch.WithAdapter[[]Ranch](adapter))
//	res := ranches.Execute(ctx)
//	if res.Success {
//	    render(res.Data)
//	}
//
// Caching applies to keyed GET requests only. The cache key is the sole
// cache identity: URL, query, headers and body are not part of it.
package fetch
