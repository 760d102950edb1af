package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Category classifies model call failures for logs and metrics.
type Category string

const (
	CategoryTimeout       Category = "timeout"
	CategoryCanceled      Category = "canceled"
	CategoryRateLimited   Category = "rate_limited"
	CategoryAuth          Category = "auth"
	CategoryBadRequest    Category = "bad_request"
	CategoryProviderError Category = "provider_error"
	CategoryEmptyResponse Category = "empty_response"
	CategoryUnknown       Category = "unknown"
)

// ErrEmptyResponse is returned when a provider answers without usable text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Error is a classified provider failure.
type Error struct {
	Err        error
	StatusCode int
	Provider   string
	Model      string
	Category   Category
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s/%s: %s (status %d): %v", e.Provider, e.Model, e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s: %v", e.Provider, e.Model, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyError wraps err with a category derived from the context error,
// the HTTP status and finally the message text. An already classified
// error is returned unchanged.
func ClassifyError(err error, provider, model string, statusCode int) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}

	e := &Error{Err: err, StatusCode: statusCode, Provider: provider, Model: model}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Category = CategoryTimeout
		return e
	case errors.Is(err, context.Canceled):
		e.Category = CategoryCanceled
		return e
	case errors.Is(err, ErrEmptyResponse):
		e.Category = CategoryEmptyResponse
		return e
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		e.Category = CategoryTimeout
		return e
	}

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		e.Category = CategoryRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Category = CategoryAuth
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		e.Category = CategoryBadRequest
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e.Category = CategoryTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		e.Category = CategoryProviderError
	default:
		e.Category = classifyByMessage(strings.ToLower(err.Error()))
	}
	return e
}

func classifyByMessage(msg string) Category {
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return CategoryRateLimited
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication"):
		return CategoryAuth
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "capacity"):
		return CategoryProviderError
	default:
		return CategoryUnknown
	}
}

// CategoryOf returns the category of a classified error or CategoryUnknown.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryUnknown
}
