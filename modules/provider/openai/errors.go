package openai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/flemzord/toolgate/internal/assist"
	sdk "github.com/openai/openai-go/v3"
)

// mapError maps an SDK error to an assist sentinel error. Context errors
// pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return fmt.Errorf("%w: %w", assist.ErrRateLimit, err)
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return fmt.Errorf("%w: %w", assist.ErrAuth, err)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %w", assist.ErrProviderDown, err)
		default:
			return fmt.Errorf("openai: %w", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", assist.ErrProviderDown, err)
	}
	return fmt.Errorf("openai: %w", err)
}
