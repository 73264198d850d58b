package sonar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// APIError wraps a non-success response from the server with status metadata.
type APIError struct {
	Status    int
	Endpoint  string
	Temporary bool
	Err       error
}

func (e *APIError) Error() string {
	if e == nil {
		return "sonar api error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("sonar api error (endpoint=%s status=%d)", e.Endpoint, e.Status)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var (
	// ErrUnauthorized is returned when the server rejects the configured credentials.
	ErrUnauthorized = errors.New("sonar server rejected credentials")
	// ErrProjectNotFound is returned when the server does not know the project key.
	ErrProjectNotFound = errors.New("project not found on sonar server")
	// ErrAnalysisPending is returned when a background analysis did not finish in time.
	ErrAnalysisPending = errors.New("analysis still pending on sonar server")
)

func newAPIError(endpoint string, status int) *APIError {
	apiErr := &APIError{Status: status, Endpoint: endpoint}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Err = fmt.Errorf("%w (status %d)", ErrUnauthorized, status)
	case status == http.StatusNotFound:
		apiErr.Err = fmt.Errorf("%w (status %d)", ErrProjectNotFound, status)
	case status == http.StatusTooManyRequests || status >= 500:
		apiErr.Temporary = true
	}
	return apiErr
}

// IsTransient reports whether an error is likely to clear on a later attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrAnalysisPending) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary
	}
	return false
}
