// Package resilience groups the failure-handling primitives used around
// upstream text-generation calls and the persistent cache tier.
//
//   - circuitbreaker: a counting breaker for the LLM client, and Guard, a
//     gobreaker wrapper for the cache store
//   - retry: exponential backoff with jitter that honors Retry-After
//
// Example:
//
//	cb := circuitbreaker.New(circuitbreaker.LLMAPIConfig())
//	if !cb.CanExecute() {
//	    return fallback()
//	}
//	err := retry.WithBackoff(ctx, retry.LLMAPIConfig(), func(attempt int) error {
//	    return call(ctx)
//	})
package resilience
