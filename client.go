package redirectx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.sr.ht/~jamesponddotco/pagecache-go"
	"git.sr.ht/~jamesponddotco/pagecache-go/memorycachex"
	"git.sr.ht/~jamesponddotco/redirectx-go/internal/build"
	"git.sr.ht/~jamesponddotco/redirectx-go/internal/httpclient"
	"golang.org/x/time/rate"
)

// _mediaTypeFormURLEncoded is the default Content-Type for POST requests with
// form data.
const _mediaTypeFormURLEncoded string = "application/x-www-form-urlencoded"

// DefaultTimeout is the default timeout for all requests made by the client.
const DefaultTimeout = 10 * time.Second

type Client struct {
	// client is the underlying http.Client used to make requests. It never
	// follows redirects itself.
	client *http.Client

	// RateLimiter specifies a client-side requests per second limit.
	//
	// It applies to retries and to every redirect hop after the first
	// request.
	RateLimiter *rate.Limiter

	// RetryPolicy specifies the policy for retrying requests.
	RetryPolicy *RetryPolicy

	// RedirectPolicy specifies the policy for following redirects. If nil,
	// redirect responses are returned to the caller as-is.
	RedirectPolicy *RedirectPolicy

	// UserAgent is the User-Agent header to use for all requests.
	UserAgent *UserAgent

	// Cache is an optional cache mechanism to store HTTP responses.
	Cache pagecache.Cache

	// Logger is used to log every request sent when Debug is true. If nil,
	// DefaultLogger is used.
	Logger Logger

	// Timeout is the timeout for all requests made by the client, overriding
	// the default value set in the underlying http.Client.
	Timeout time.Duration

	// Debug enables logging of every request sent, redirects included.
	Debug bool
}

func DefaultClient() *Client {
	return &Client{
		client:         httpclient.NewClient(DefaultTimeout, DefaultTransport()),
		RateLimiter:    rate.NewLimiter(rate.Limit(2), 1),
		RetryPolicy:    DefaultRetryPolicy(),
		RedirectPolicy: DefaultRedirectPolicy(),
		UserAgent:      DefaultUserAgent(),
		Cache:          memorycachex.NewCache(pagecache.DefaultPolicy(), pagecache.DefaultCapacity),
	}
}

// NewClient returns a Client that sends requests through the given
// transport, with the default retry and redirect policies and no cache or
// rate limit.
func NewClient(transport http.RoundTripper) *Client {
	if transport == nil {
		transport = DefaultTransport()
	}

	return &Client{
		client:         httpclient.NewClient(DefaultTimeout, transport),
		RetryPolicy:    DefaultRetryPolicy(),
		RedirectPolicy: DefaultRedirectPolicy(),
		UserAgent:      DefaultUserAgent(),
	}
}

// Do sends req and follows the redirects it receives according to the
// client's RedirectPolicy. Each hop is retried according to the client's
// RetryPolicy.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	c.initClient()
	c.setUserAgent(req)

	var (
		resp *http.Response
		key  string
		err  error
	)

	if c.Cache != nil {
		key = pagecache.Key(build.Name, req.Req)

		resp, err = c.Cache.Get(ctx, key)
		if resp != nil && err == nil {
			return resp, nil
		}
	}

	first := true

	dispatch := func(ctx context.Context, hop *Request) (*http.Response, error) {
		if first {
			first = false
		} else if c.RateLimiter != nil {
			if err := c.RateLimiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
		}

		return c.send(ctx, hop)
	}

	resp, err = c.RedirectPolicy.Follow(ctx, req, dispatch)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		var (
			ctx    = context.Background()
			policy = c.Cache.Policy()
		)

		if err = c.Cache.Set(ctx, key, resp, policy.TTL(resp)); err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return resp, nil
}

// send sends a single request, without following redirects, retrying it
// according to the client's RetryPolicy.
func (c *Client) send(ctx context.Context, req *Request) (*http.Response, error) {
	var (
		resp *http.Response
		err  error
	)

	maxRetries := 1
	if c.RetryPolicy != nil && c.RetryPolicy.MaxRetries > 0 {
		maxRetries = c.RetryPolicy.MaxRetries
	}

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			if c.RateLimiter != nil {
				if err = c.RateLimiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("%w", err)
				}
			}

			if err = rewindBody(req.Req); err != nil {
				return nil, err
			}
		}

		c.logf("%s %s", req.Req.Method, req.Req.URL)

		resp, err = c.client.Do(req.Req)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w", ctx.Err())
			default:
			}

			return nil, fmt.Errorf("%w", err)
		}

		if c.RetryPolicy == nil || i == maxRetries-1 || !c.RetryPolicy.ShouldRetry(resp) {
			break
		}

		c.logf("%s %s: retrying after status %d", req.Req.Method, req.Req.URL, resp.StatusCode)

		if err = c.RetryPolicy.Wait(ctx, resp); err != nil {
			_ = DrainResponseBody(resp)

			return nil, fmt.Errorf("%w", err)
		}

		if err = DrainResponseBody(resp); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// Get is a convenience method for making GET requests.
func (c *Client) Get(ctx context.Context, uri string) (resp *http.Response, err error) {
	req, err := NewRequest(ctx, http.MethodGet, uri, nil, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return c.Do(ctx, req)
}

// Head is a convenience method for making HEAD requests.
func (c *Client) Head(ctx context.Context, uri string) (resp *http.Response, err error) {
	req, err := NewRequest(ctx, http.MethodHead, uri, nil, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return c.Do(ctx, req)
}

// Post is a convenience method for making POST requests.
func (c *Client) Post(ctx context.Context, uri, contentType string, body io.Reader) (resp *http.Response, err error) {
	req, err := NewRequest(ctx, http.MethodPost, uri, nil, body)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	req.Req.Header.Set("Content-Type", contentType)

	return c.Do(ctx, req)
}

// PostForm is a convenience method for making POST requests with form data.
func (c *Client) PostForm(ctx context.Context, uri string, data url.Values) (resp *http.Response, err error) {
	return c.Post(ctx, uri, _mediaTypeFormURLEncoded, strings.NewReader(data.Encode()))
}

// initClient initializes the underlying http.Client if none has been set and
// set the timeout if it's not zero.
func (c *Client) initClient() {
	if c.client == nil {
		c.client = httpclient.NewClient(DefaultTimeout, DefaultTransport())
	}

	if c.Timeout != 0 {
		c.client.Timeout = c.Timeout
	}
}

// setUserAgent sets the User-Agent header if it's not already set.
func (c *Client) setUserAgent(req *Request) {
	if req.Req.Header.Get("User-Agent") == "" {
		req.Req.Header.Set("User-Agent", c.UserAgent.String())
	}
}

// logf logs a message when debugging is enabled.
func (c *Client) logf(format string, v ...any) {
	if !c.Debug {
		return
	}

	var logger Logger = c.Logger
	if logger == nil {
		logger = DefaultLogger()
	}

	logger.Printf(format, v...)
}

// rewindBody resets the body of a request that is about to be sent again.
func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}

	body, err := replayBody(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBodyNotReplayable, err)
	}

	req.Body = body

	return nil
}
