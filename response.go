package redirectx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"git.sr.ht/~jamesponddotco/xstd-go/xerrors"
)

const (
	// ErrCannotDecodeJSON is returned when a JSON response cannot be decoded.
	ErrCannotDecodeJSON xerrors.Error = "cannot decode JSON response"

	// ErrCannotEncodeJSON is returned when a JSON request cannot be encoded.
	ErrCannotEncodeJSON xerrors.Error = "cannot encode JSON request"

	// ErrCannotDrainResponse is returned when a response body cannot be drained.
	ErrCannotDrainResponse xerrors.Error = "cannot drain response body"

	// ErrCannotCloseResponse is returned when a response body cannot be closed.
	ErrCannotCloseResponse xerrors.Error = "cannot close response body"
)

// ReadJSON reads the body of an HTTP response and unmarshals it into the given
// struct. The provided val parameter should be a pointer to a struct where the
// JSON data will be unmarshalled.
func ReadJSON(resp *http.Response, val any) error {
	decoder := json.NewDecoder(resp.Body)

	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotDecodeJSON, err)
	}

	return nil
}

// WriteJSON writes a given struct to a JSON payload that can be used for HTTP
// requests. The provided val parameter should be a pointer to a struct where
// the JSON data will be marshaled.
func WriteJSON(val any) (*bytes.Buffer, error) {
	var (
		payload = new(bytes.Buffer)
		encoder = json.NewEncoder(payload)
	)

	if err := encoder.Encode(val); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotEncodeJSON, err)
	}

	return payload, nil
}

// DrainResponseBody reads and discards the remaining content of the response
// body until EOF, then closes it. If an error occurs while draining or closing
// the response body, an error is returned.
func DrainResponseBody(resp *http.Response) error {
	_, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCannotDrainResponse, err)
	}

	if err = resp.Body.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotCloseResponse, err)
	}

	return nil
}

// IsSuccess checks if the HTTP response has a successful status code (2xx).
func IsSuccess(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

// IsRedirect checks if the HTTP response is a redirect that a RedirectPolicy
// would follow: a 301, 302, 303, 307 or 308 status code with a Location header.
func IsRedirect(resp *http.Response) bool {
	return resp != nil && IsRedirectStatus(resp.StatusCode) && len(resp.Header.Values("Location")) > 0
}

// RedirectHistory returns the URIs followed to obtain the response, in order,
// as recorded by a RedirectPolicy with TrackHistory enabled. The original
// request URI is not included.
func RedirectHistory(resp *http.Response) []string {
	if resp == nil {
		return nil
	}

	return resp.Header.Values(HeaderRedirectHistory)
}

// RedirectStatusHistory returns the status codes of the redirects followed to
// obtain the response, in order, as recorded by a RedirectPolicy with
// TrackHistory enabled. Malformed values are skipped.
func RedirectStatusHistory(resp *http.Response) []int {
	if resp == nil {
		return nil
	}

	values := resp.Header.Values(HeaderRedirectStatusHistory)
	if len(values) == 0 {
		return nil
	}

	codes := make([]int, 0, len(values))

	for _, value := range values {
		code, err := strconv.Atoi(value)
		if err != nil {
			continue
		}

		codes = append(codes, code)
	}

	return codes
}
