package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/alnah/go-contentflow/internal/apierr"
)

// classifyError maps provider errors to apierr sentinels.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if status, msg, ok := httpFailure(err); ok {
		switch status {
		case http.StatusTooManyRequests:
			// Billing problems need user action, unlike a temporary rate limit.
			if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
				return fmt.Errorf("%s: %w", msg, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%s: %w", msg, apierr.ErrQuotaExceeded)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", msg, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", msg, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// httpFailure extracts the status and message from go-openai error types.
func httpFailure(err error) (int, string, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return reqErr.HTTPStatusCode, msg, true
	}
	return 0, "", false
}

// isRetryable reports whether opening a call again may succeed.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return apierr.IsTransient(err)
}
