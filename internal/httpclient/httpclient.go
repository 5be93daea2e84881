// Package httpclient provides functions to control the underlying HTTP client
// for [the redirectx package].
//
// [the redirectx package]: https://godocs.io/git.sr.ht/~jamesponddotco/redirectx-go
package httpclient

import (
	"net/http"
	"time"
)

// NewClient returns a new http.Client with the given timeout and transport.
//
// The returned client never follows redirects on its own. Every 3xx response
// is handed back as-is so the redirect stage of the pipeline can decide
// whether and how to follow it.
func NewClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	return &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: UseLastResponse,
	}
}

// UseLastResponse is an http.Client.CheckRedirect function that stops
// net/http from following any redirect.
func UseLastResponse(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}
