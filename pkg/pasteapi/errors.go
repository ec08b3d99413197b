// Package pasteapi is the client for the paste store: upload a raw blob, get
// a retrieval URL back, fetch the blob again by ID or URL.
package pasteapi

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the paste does not exist or has
// expired.
var ErrNotFound = errors.New("paste not found")

// StoreUnavailableError means the paste store could not serve a request,
// either because it was unreachable or because it answered with something
// other than the expected response.
type StoreUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("paste store %s unavailable: %v", e.Endpoint, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a StoreUnavailableError.
func IsUnavailable(err error) bool {
	var ue *StoreUnavailableError
	return errors.As(err, &ue)
}
