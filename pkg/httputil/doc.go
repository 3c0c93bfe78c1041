// Package httputil provides retry helpers for outbound service calls.
//
// # Overview
//
// The generation and background-removal services are remote and
// occasionally flaky. [Retry] re-runs an operation with exponential backoff
// when it fails with an error wrapped in [RetryableError]:
//
//   - Network errors (connection refused, timeouts)
//   - 5xx server errors
//   - 429 responses
//
// Errors that are not wrapped fail immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// # Configuration
//
// [RetryWithBackoff] uses 3 attempts starting at a 1 second delay. Call
// [Retry] directly for other budgets.
package httputil
