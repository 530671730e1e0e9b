package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/flemzord/toolgate/internal/assist"
	"google.golang.org/genai"
)

// mapError maps a genai error to an assist sentinel error. Context errors
// pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %w", assist.ErrRateLimit, err)
		case apiErr.Code == 401 || apiErr.Code == 403:
			return fmt.Errorf("%w: %w", assist.ErrAuth, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %w", assist.ErrProviderDown, err)
		default:
			return fmt.Errorf("gemini: %w", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", assist.ErrProviderDown, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
