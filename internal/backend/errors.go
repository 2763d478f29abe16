package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrNetwork        = fmt.Errorf("backend unreachable")
	ErrNetworkTimeout = fmt.Errorf("backend request timed out")
	ErrAuth           = fmt.Errorf("backend rejected credentials")
	ErrNoSession      = fmt.Errorf("no active session")
)

// StatusError is returned for every non-2xx response. Message is taken from
// the response body's "error" or "message" field when present.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrAuth) match 401 and 403 responses.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrAuth
	}
	return nil
}

func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrNetworkTimeout)
}

// classify maps a transport level failure onto the package taxonomy.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
