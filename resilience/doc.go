// Package resilience provides retry loops, backoff policies, a circuit
// breaker and a token-bucket rate limiter shared by the request executor,
// the REST adapter and the live connection manager.
//
// The fetch package retries with linear backoff:
//
//	cfg := resilience.RetryConfig{
//	    MaxAttempts: retries + 1,
//	    Backoff:     resilience.LinearBackoff(time.Second),
//	}
//	data, err := resilience.Retry(ctx, cfg, attemptFn)
//
// The live package schedules reconnects with a capped exponential policy:
//
//	delay := resilience.ExponentialBackoff(3*time.Second, 1.5, 30*time.Second)(attempt)
//
// The httpclient adapter optionally guards every exchange:
//
//	limiter := resilience.NewRateLimiter(resilience.RateLimitConfig{Rate: 5})
//	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("ranch-api"))
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	err := breaker.Execute(func() error { return send(ctx) })
package resilience
