package client

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (bad request, auth,
	// unknown property). Never retried.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and quota-exceeded 403 errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport-level errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError wraps a failed Search Console call with its classification.
type APIError struct {
	Op         string
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("search console %s: %s error (status %d): %v",
			e.Op, e.ErrorClass, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search console %s: %s error: %v", e.Op, e.ErrorClass, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyError categorizes an error from a Search Console call.
// The API signals exhausted quota either as 429 or as 403 with a
// quota/rate reason, so both map to rate_limit.
func classifyError(err error) ErrorClass {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return ErrorClassNetwork
	}

	switch {
	case gerr.Code == 429:
		return ErrorClassRateLimit
	case gerr.Code == 403 && isQuotaReason(gerr):
		return ErrorClassRateLimit
	case gerr.Code >= 400 && gerr.Code < 500:
		return ErrorClassClient
	case gerr.Code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassNetwork
	}
}

// isQuotaReason reports whether a 403 carries a quota or rate reason
// rather than a permission problem.
func isQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		reason := strings.ToLower(item.Reason)
		if strings.Contains(reason, "quota") || strings.Contains(reason, "ratelimit") {
			return true
		}
	}
	return false
}

// statusCode extracts the HTTP status from an error, 0 if none.
func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors are deterministic; retrying burns quota for nothing.
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
