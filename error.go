package redirectx

import (
	"fmt"
	"net/url"

	"git.sr.ht/~jamesponddotco/xstd-go/xerrors"
)

const (
	// ErrTooManyRedirects is returned when a redirect chain goes past the
	// maximum number of hops allowed by the RedirectPolicy.
	ErrTooManyRedirects xerrors.Error = "too many redirects"

	// ErrInvalidProtocol is returned when a redirect points to a URI whose
	// scheme is not allowed by the RedirectPolicy.
	ErrInvalidProtocol xerrors.Error = "invalid redirect protocol"

	// ErrInvalidLocation is returned when a redirect response carries a
	// Location header that cannot be resolved to a URI.
	ErrInvalidLocation xerrors.Error = "invalid redirect location"

	// ErrBodyNotReplayable is returned when a redirect requires the request
	// body to be sent again but the request cannot produce a fresh copy of it.
	ErrBodyNotReplayable xerrors.Error = "request body cannot be replayed"

	// ErrRedirectAborted is returned when RedirectPolicy.OnRedirect refuses
	// to follow a redirect.
	ErrRedirectAborted xerrors.Error = "redirect aborted"

	// ErrNoResponse is returned when a DispatchFunc returns neither a
	// response nor an error.
	ErrNoResponse xerrors.Error = "no response received"
)

// RedirectError describes why a redirect chain was abandoned.
type RedirectError struct {
	// Err is the sentinel error describing the kind of failure, such as
	// ErrTooManyRedirects or ErrInvalidProtocol.
	Err error

	// URL is the URL of the request that received the redirect.
	URL *url.URL

	// Method is the HTTP method of the request that received the redirect.
	Method string

	// Location is the raw value of the Location header.
	Location string

	// Message is a human-readable error message.
	Message string

	// StatusCode is the HTTP status code of the redirect response.
	StatusCode int
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s: %s %d (%s): %s", e.Err, e.Method, e.StatusCode, e.URL, e.Message)
}

// Unwrap returns the sentinel error, allowing errors.Is to match the kind of
// failure.
func (e *RedirectError) Unwrap() error {
	return e.Err
}
