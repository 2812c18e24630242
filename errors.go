package grist

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when a call needs a credential and none
	// could be resolved from the configuration, the environment, or the
	// per-user key file.
	ErrNoAPIKey = errors.New("no API key found")

	// ErrInvalidRecord is returned when a record does not satisfy the
	// structural requirements of an operation, such as an update record
	// without a numeric id.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrFilterNotSubset is returned by SyncTable when a filter names a
	// column that is not one of the key columns.
	ErrFilterNotSubset = errors.New("key columns must be a superset of filter columns")

	// ErrMalformedResponse is returned when the server's response does
	// not match the expected wire shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError reports a non-success outcome from the document server.
type APIError struct {
	StatusCode int
	Message    string // server-provided error text, or the raw body
	Hint       string // set on authorization failures of a keyless client
}

func (e *APIError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("document server returned %d: %s (%s)", e.StatusCode, e.Message, e.Hint)
	}
	return fmt.Sprintf("document server returned %d: %s", e.StatusCode, e.Message)
}
