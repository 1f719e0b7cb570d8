package coordinator

import "fmt"

// FailureReason distinguishes the two classes of cycle failure. Connection
// failures skip graceful degradation; API failures may be degraded or, at
// setup time, tolerated when they indicate a missing device capability.
type FailureReason string

const (
	ReasonConnection FailureReason = "connection"
	ReasonAPI        FailureReason = "api"
)

// UpdateError is the outcome of a failed fetch cycle. It wraps the original
// client error so callers can still classify it with errors.Is.
type UpdateError struct {
	Reason FailureReason
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update failed (%s): %v", e.Reason, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
