package contextapi

import (
	"errors"
	"fmt"
)

// TransportError means the context service could not be reached or returned
// something other than a well-formed context response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching context for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnsupportedContentError means the context service refused to provide
// context for the URL. Message carries the service's reason verbatim so it
// can be shown to the user as-is.
type UnsupportedContentError struct {
	URL     string
	Message string
}

func (e *UnsupportedContentError) Error() string {
	return e.Message
}

// IsUnsupported reports whether err is an UnsupportedContentError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedContentError
	return errors.As(err, &ue)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
