// Package contextapi defines the wire format of the URL context service and
// a client for talking to it.
package contextapi

// Context is the metadata the context service resolves for a single URL.
type Context struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Tokens      int    `json:"tokens"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

// ErrorResponse is the body the context service returns when it cannot
// resolve a URL.
type ErrorResponse struct {
	Error string `json:"error"`
}
