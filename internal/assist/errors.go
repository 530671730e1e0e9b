package assist

import "errors"

// Sentinel errors for model operations.
var (
	// ErrNotConfigured indicates no provider is registered for the operation.
	ErrNotConfigured = errors.New("no provider configured")

	// ErrRateLimit indicates the provider returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrAuth indicates the provider rejected the credentials.
	ErrAuth = errors.New("provider authentication failed")

	// ErrProviderDown indicates the provider is temporarily unavailable.
	ErrProviderDown = errors.New("provider unavailable")

	// ErrVisionModelNotSet is returned by vision tools before a model is chosen.
	ErrVisionModelNotSet = errors.New("vision model not set")

	// ErrNotImage is returned when a file or download is not an image.
	ErrNotImage = errors.New("not an image")

	// ErrScreenshot is returned when a page could not be loaded or captured.
	ErrScreenshot = errors.New("screenshot failed")
)

// IsRetryable reports whether the error is transient and the request
// can be retried, possibly against another model.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrProviderDown)
}
