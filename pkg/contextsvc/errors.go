package contextsvc

import (
	"net/http"
)

// RespError is a resolve failure with the HTTP status the service should
// answer with. The message goes into the {"error": ...} body verbatim, so it
// is written for end users.
type RespError struct {
	Status  int
	Message string
}

func (e *RespError) Error() string {
	return e.Message
}

// ErrHTMLNotSupported rejects HTML pages. Web pages need rendering and
// readability extraction to be useful context, which this service does not
// do.
var ErrHTMLNotSupported = &RespError{
	Status:  http.StatusUnsupportedMediaType,
	Message: "HTML pages are not supported as context",
}
