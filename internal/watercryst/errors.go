package watercryst

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the WaterCryst API. Use errors.Is to classify.
//
// The transport layer retries the transient classes (empty body, malformed
// body, 5xx, connection errors) internally and only raises after exhausting
// attempts. The fatal classes (auth, rate limit, disabled, unsupported) are
// never retried at any layer.
var (
	// ErrAuthentication means the API key was rejected (HTTP 401).
	ErrAuthentication = errors.New("watercryst: invalid API key")

	// ErrRateLimited means the API rate limit was exceeded (HTTP 429).
	ErrRateLimited = errors.New("watercryst: rate limit exceeded")

	// ErrDisabled means the endpoint is disabled for this account (HTTP 403).
	ErrDisabled = errors.New("watercryst: endpoint disabled")

	// ErrUnsupported means the operation is not supported by the device (HTTP 400).
	ErrUnsupported = errors.New("watercryst: operation not supported")

	// ErrEmptyResponse means the API kept returning empty bodies on a
	// success status until all retries were exhausted.
	ErrEmptyResponse = errors.New("watercryst: empty response")

	// ErrInvalidResponse means the body could not be decoded as expected.
	ErrInvalidResponse = errors.New("watercryst: invalid response")

	// ErrServerError means the body looked like an error page on a 200 status.
	ErrServerError = errors.New("watercryst: server error response")

	// ErrConnection means a network-level failure (timeout, reset) survived
	// all retries. Coordinators treat this distinctly from API failures.
	ErrConnection = errors.New("watercryst: connection error")

	// ErrInvalidArgument means a call was rejected by local validation
	// before any network request was issued.
	ErrInvalidArgument = errors.New("watercryst: invalid argument")
)

// StatusError reports a non-retryable, unclassified HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("watercryst: request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsConnectionError reports whether err is a network-level failure rather
// than an API-level one.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}
