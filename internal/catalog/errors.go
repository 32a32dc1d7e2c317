package catalog

import (
	"errors"
	"fmt"
)

// TimeoutError indicates the fetch exceeded its deadline or was canceled.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("catalog fetch timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError indicates the catalog could not be reached at all
// (DNS, connection refused, broken pipe).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError indicates the catalog responded, but unusably: a non-2xx
// status or a body that does not parse.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog response invalid: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a fetch timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsTransport reports whether err is a connectivity failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsUpstream reports whether err is a bad response from a reachable catalog.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
