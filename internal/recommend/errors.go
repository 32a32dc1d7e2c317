package recommend

import (
	"errors"
	"fmt"
)

// Kind classifies recommendation failures for callers that map them to
// transport-level responses.
type Kind string

const (
	KindNoProfile    Kind = "no_profile"
	KindFetchFailed  Kind = "fetch_failed"
	KindTimedOut     Kind = "timed_out"
	KindCatalogError Kind = "catalog_error"
)

// Error is a classified recommendation failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or "" if err is not a
// recommendation error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
