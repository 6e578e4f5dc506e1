package billing

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repository lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEvent is returned by ProcessEvent when the (provider, event id)
// pair already has a processed-event row. Callers treat it as success.
var ErrDuplicateEvent = errors.New("event already processed")

// UnmappableDataError marks provider data that no retry can fix, e.g. a price
// id missing from the configured tier table or an unknown status value. The
// event is acknowledged after logging; silently substituting a default tier
// would mis-grant entitlement.
type UnmappableDataError struct {
	Provider string
	Field    string
	Value    string
}

func (e *UnmappableDataError) Error() string {
	return fmt.Sprintf("unmappable %s value %q for provider %s", e.Field, e.Value, e.Provider)
}

// TransientError wraps persistence failures that are safe for the sender to
// retry (store unavailable, write conflict).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient persistence failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
