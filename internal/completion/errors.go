package completion

import "errors"

// Sentinel errors for completion calls.
var (
	// ErrContextLength indicates the submitted window exceeded the
	// model's real context capacity. This is an expected condition: the
	// driver trims the window and retries.
	ErrContextLength = errors.New("completion: context length exceeded")

	// ErrRateLimit indicates the service returned a rate-limit response.
	ErrRateLimit = errors.New("completion: rate limited")

	// ErrUpstreamDown indicates the service is unreachable or returned an
	// internal error.
	ErrUpstreamDown = errors.New("completion: service unavailable")
)

// IsRetryable reports whether the error is transient and the request can be
// retried unchanged after a backoff interval. Context-length errors are not
// retryable as-is; they require trimming first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUpstreamDown)
}
