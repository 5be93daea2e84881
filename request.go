package redirectx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"git.sr.ht/~jamesponddotco/redirectx-go/internal/separator"
	"git.sr.ht/~jamesponddotco/xstd-go/xcrypto/xuuid"
	"git.sr.ht/~jamesponddotco/xstd-go/xerrors"
)

const (
	// ErrRequest is returned when a request cannot be created.
	ErrRequest xerrors.Error = "unable to create request"

	// ErrInvalidMethod is returned when an invalid HTTP method is provided.
	ErrInvalidMethod xerrors.Error = "invalid HTTP method"

	// ErrIdempotencyKey is returned when an idempotency key is not provided and a
	// random one cannot be generated.
	ErrIdempotencyKey xerrors.Error = "unable to generate idempotency key"

	// ErrRequestBody is returned when a request body cannot be buffered.
	ErrRequestBody xerrors.Error = "unable to buffer request body"
)

// validMethods lists the HTTP methods accepted by NewRequest.
var validMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// Request represents an HTTP request to be sent by a client. It wraps an
// http.Request and provides additional methods for setting common headers.
//
// A Request is not modified when a redirect is followed; every hop gets a
// new Request.
type Request struct {
	// Req is the underlying http.Request.
	Req *http.Request
}

// NewRequest returns a new Request given a method, URL, and optional headers
// and body.
//
// The body is buffered in memory so it can be sent again when a request is
// retried or redirected with a 307 or 308 status code.
func NewRequest(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*Request, error) {
	if _, ok := validMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %w %s", ErrRequest, ErrInvalidMethod, method)
	}

	body, err := replayableBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	defaultHeaders := req.Header.Clone()

	for k, v := range headers {
		defaultHeaders.Set(k, v)
	}

	req.Header = defaultHeaders

	return &Request{Req: req}, nil
}

// SetBearerToken sets the Authorization header to use the given bearer token.
//
// The header is dropped when a redirect leaves the request's host.
func (r *Request) SetBearerToken(token string) {
	r.Req.Header.Set("Authorization", "Bearer "+token)
}

// SetPrefixToken sets the Authorization header to use the given prefix token.
func (r *Request) SetPrefixToken(prefix, token string) {
	r.Req.Header.Set("Authorization", prefix+separator.Space+token)
}

// SetIdempotencyKey sets the Idempotency-Key header for POST and PATCH
// requests with the given key. If no key is provided, a random one is
// generated using a V4 UUID.
func (r *Request) SetIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		uuid, err := xuuid.New()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIdempotencyKey, err)
		}

		key = uuid.String()
	}

	if r.Req.Method == http.MethodPost || r.Req.Method == http.MethodPatch {
		r.Req.Header.Set("Idempotency-Key", key)
	}

	return nil
}

// SetUserAgent sets the User-Agent header to the given value.
func (r *Request) SetUserAgent(ua string) {
	r.Req.Header.Set("User-Agent", ua)
}

// replayableBody returns a body http.NewRequestWithContext knows how to
// replay, reading arbitrary readers into memory.
func replayableBody(body io.Reader) (io.Reader, error) {
	switch body.(type) {
	case nil, *bytes.Buffer, *bytes.Reader, *strings.Reader:
		return body, nil
	}

	if body == http.NoBody {
		return body, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestBody, err)
	}

	if closer, ok := body.(io.Closer); ok {
		_ = closer.Close()
	}

	return bytes.NewReader(data), nil
}
