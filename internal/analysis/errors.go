package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the poll loop exhausts its attempt budget
	// without the remote job reaching a terminal state.
	ErrTimeout = errors.New("analysis did not complete within the polling budget")

	// ErrCancelled is returned when the enclosing request is cancelled while
	// waiting on the remote job.
	ErrCancelled = errors.New("analysis cancelled")

	// ErrNoJobLocation is returned when an accepted response carries no job
	// location header.
	ErrNoJobLocation = errors.New("accepted response missing job location header")

	// ErrEmptyResult is returned when a synchronous response carries no text.
	ErrEmptyResult = errors.New("analysis returned an empty result")
)

// HTTPError reports a non-success status from the analysis service.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("analysis service returned status %d", e.StatusCode)
}

// ParseError reports a malformed status payload during polling.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed analysis status payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError reports a failure to acquire or attach credentials. It is often
// transient: freshly granted permissions can take a while to propagate.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("analysis auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError reports a job that the remote service marked failed.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("analysis job failed: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("analysis job failed: %s", e.Message)
}
