// Package retry provides simple exponential backoff retry logic for
// transient failures.
//
// The dictionary service uses it around network lookups; anything that
// talks to an external resource during startup can use Quick() for
// tighter, faster attempts.
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Fetch()
//	})
//
// Retry with result:
//
//	entry, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*Entry, error) {
//	    return client.Lookup(word)
//	})
//
// Errors wrapped with NonRetryable stop the loop immediately; the
// caller decides what is worth retrying, the package never inspects
// error types itself. All operations respect context cancellation,
// both between attempts and during backoff sleeps.
package retry
