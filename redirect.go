package redirectx

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"git.sr.ht/~jamesponddotco/redirectx-go/internal/separator"
	"git.sr.ht/~jamesponddotco/redirectx-go/internal/urix"
)

const (
	// DefaultMaxRedirects is the default number of redirects a chain may
	// follow before failing with ErrTooManyRedirects.
	DefaultMaxRedirects int = 5

	// HeaderRedirectHistory is the response header listing every URI
	// followed during a redirect chain, in order, when history tracking is
	// enabled.
	HeaderRedirectHistory string = "X-Redirect-History"

	// HeaderRedirectStatusHistory is the response header listing the status
	// code of every redirect followed during a chain, in order, when history
	// tracking is enabled.
	HeaderRedirectStatusHistory string = "X-Redirect-Status-History"
)

// DefaultProtocols returns the URI schemes a redirect may point to by default.
func DefaultProtocols() []string {
	return []string{"http", "https"}
}

// credentialHeaders are only valid for the host they were sent to and are
// removed whenever a redirect leaves it.
var credentialHeaders = []string{
	"Authorization",
	"Cookie",
	"Cookie2",
	"Www-Authenticate",
}

// bodyHeaders describe the request body and are removed along with it.
var bodyHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Encoding",
	"Transfer-Encoding",
}

// RedirectPolicy defines a policy for following HTTP redirects.
//
// A nil *RedirectPolicy disables redirect following entirely. A
// RedirectPolicy is never modified while in use and can be shared by
// concurrent requests.
type RedirectPolicy struct {
	// OnRedirect, if set, is called before every redirect is followed with
	// the request that received the redirect, the redirect response and the
	// URI about to be requested. Returning an error aborts the chain.
	OnRedirect func(req *http.Request, resp *http.Response, target *url.URL) error `yaml:"-" json:"-"`

	// Protocols lists the URI schemes a redirect is allowed to point to.
	//
	// If empty, DefaultProtocols is used.
	Protocols []string `yaml:"protocols" json:"protocols"`

	// Max is the maximum number of redirects followed for a single request.
	//
	// If zero or negative, DefaultMaxRedirects is used.
	Max int `yaml:"max" json:"max"`

	// Strict makes 301 and 302 redirects keep the original method and body,
	// as 307 and 308 do. By default they are turned into GET requests, which
	// is what most browsers do.
	Strict bool `yaml:"strict" json:"strict"`

	// Referer adds a Referer header pointing at the previous URI to every
	// redirected request, except when going from https to http.
	Referer bool `yaml:"referer" json:"referer"`

	// TrackHistory records every followed URI and status code and exposes
	// them on the final response through the HeaderRedirectHistory and
	// HeaderRedirectStatusHistory headers.
	TrackHistory bool `yaml:"track_history" json:"track_history"`
}

// DefaultRedirectPolicy returns a RedirectPolicy with sensible defaults for
// following HTTP redirects.
func DefaultRedirectPolicy() *RedirectPolicy {
	return &RedirectPolicy{
		Protocols: DefaultProtocols(),
		Max:       DefaultMaxRedirects,
	}
}

// RedirectContext holds the state of a single redirect chain. It must not be
// shared between chains.
type RedirectContext struct {
	// Origin is the URI of the request that started the chain.
	Origin *url.URL

	// History lists the URIs followed so far, in order. It is only populated
	// when the policy tracks history.
	History []*url.URL

	// StatusHistory lists the status codes of the redirects followed so far,
	// in order. It is only populated when the policy tracks history.
	StatusHistory []int

	// Hops is the number of redirects seen so far.
	Hops int
}

// NewRedirectContext returns a fresh RedirectContext for a chain starting with
// req.
func NewRedirectContext(req *Request) *RedirectContext {
	rc := &RedirectContext{}

	if req != nil && req.Req != nil && req.Req.URL != nil {
		origin := *req.Req.URL
		rc.Origin = &origin
	}

	return rc
}

// DecisionKind tells what a Decision asks the caller to do.
type DecisionKind int

const (
	// DecisionTerminal means the response is not a redirect to follow and
	// should be returned as-is.
	DecisionTerminal DecisionKind = iota

	// DecisionFollow means the redirect should be followed by sending
	// Decision.Request.
	DecisionFollow

	// DecisionFailure means the chain must be abandoned with Decision.Err.
	DecisionFailure
)

// String returns the name of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionTerminal:
		return "terminal"
	case DecisionFollow:
		return "follow"
	case DecisionFailure:
		return "failure"
	default:
		return fmt.Sprintf("DecisionKind(%d)", int(k))
	}
}

// Decision is the outcome of evaluating a response against a RedirectPolicy.
type Decision struct {
	// Response is the response to return when Kind is DecisionTerminal.
	Response *http.Response

	// Request is the request to send next when Kind is DecisionFollow.
	Request *Request

	// Err describes why the chain failed when Kind is DecisionFailure. It is
	// always a *RedirectError.
	Err error

	// Kind is the kind of decision.
	Kind DecisionKind
}

func terminal(resp *http.Response) Decision {
	return Decision{Kind: DecisionTerminal, Response: resp}
}

func follow(req *Request) Decision {
	return Decision{Kind: DecisionFollow, Request: req}
}

func failure(err error) Decision {
	return Decision{Kind: DecisionFailure, Err: err}
}

// IsRedirectStatus reports whether code is one of the redirect status codes
// that can be followed: 301, 302, 303, 307 and 308.
func IsRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// Evaluate inspects resp, the response received for req, and decides whether
// it is a redirect to follow.
//
// Evaluate performs no I/O. Its only side effects are on rc: the hop counter
// is incremented for every redirect seen and, when the policy tracks history,
// the followed URI and status code are recorded.
func (p *RedirectPolicy) Evaluate(req *Request, resp *http.Response, rc *RedirectContext) Decision {
	if p == nil || resp == nil || !IsRedirectStatus(resp.StatusCode) {
		return terminal(resp)
	}

	locations := resp.Header.Values("Location")
	if len(locations) == 0 {
		return terminal(resp)
	}

	location := locations[0]

	rc.Hops++

	if limit := p.maxRedirects(); rc.Hops > limit {
		return failure(newRedirectError(ErrTooManyRedirects, req, resp, location,
			fmt.Sprintf("will not follow more than %d redirects", limit)))
	}

	target, err := urix.Resolve(req.Req.URL, location)
	if err != nil {
		return failure(newRedirectError(ErrInvalidLocation, req, resp, location, err.Error()))
	}

	protocols := p.protocols()

	if !urix.SchemeAllowed(target, protocols) {
		return failure(newRedirectError(ErrInvalidProtocol, req, resp, location,
			fmt.Sprintf("redirect URI, %s, uses an unsupported protocol; allowed: %s",
				target, strings.Join(protocols, separator.Comma+separator.Space))))
	}

	if err = urix.CheckHost(target); err != nil {
		return failure(newRedirectError(ErrInvalidLocation, req, resp, location, err.Error()))
	}

	next, err := p.nextRequest(req, resp.StatusCode, target)
	if err != nil {
		return failure(newRedirectError(ErrBodyNotReplayable, req, resp, location, err.Error()))
	}

	if p.TrackHistory {
		rc.History = append(rc.History, target)
		rc.StatusHistory = append(rc.StatusHistory, resp.StatusCode)
	}

	return follow(next)
}

// nextRequest builds the request that follows a redirect of the given status
// code to target. The original request is left untouched.
func (p *RedirectPolicy) nextRequest(req *Request, code int, target *url.URL) (*Request, error) {
	var (
		current = req.Req
		next    = current.Clone(current.Context())
	)

	next.URL = target
	next.Host = ""
	next.RequestURI = ""

	if p.rewritesMethod(current.Method, code) {
		next.Method = http.MethodGet
		next.Body = http.NoBody
		next.GetBody = nil
		next.ContentLength = 0
		next.TransferEncoding = nil

		for _, key := range bodyHeaders {
			next.Header.Del(key)
		}
	} else {
		body, err := replayBody(current)
		if err != nil {
			return nil, err
		}

		next.Body = body
	}

	if !urix.SameHost(current.URL, target) {
		for _, key := range credentialHeaders {
			next.Header.Del(key)
		}
	}

	if p.Referer {
		if urix.IsDowngrade(current.URL, target) {
			next.Header.Del("Referer")
		} else {
			next.Header.Set("Referer", urix.Referer(current.URL))
		}
	}

	return &Request{Req: next}, nil
}

// rewritesMethod reports whether a redirect with the given status code turns
// a request with the given method into a GET request without a body.
func (p *RedirectPolicy) rewritesMethod(method string, code int) bool {
	switch code {
	case http.StatusSeeOther:
		return true
	case http.StatusMovedPermanently, http.StatusFound:
		return !p.Strict && method != http.MethodHead
	default:
		return false
	}
}

func (p *RedirectPolicy) maxRedirects() int {
	if p.Max > 0 {
		return p.Max
	}

	return DefaultMaxRedirects
}

func (p *RedirectPolicy) protocols() []string {
	if len(p.Protocols) > 0 {
		return p.Protocols
	}

	return DefaultProtocols()
}

// replayBody returns a fresh copy of the request body.
func replayBody(req *http.Request) (io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil
	}

	if req.GetBody == nil {
		return nil, fmt.Errorf("%s %s: body has no GetBody function", req.Method, req.URL)
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("%s %s: unable to replay body: %w", req.Method, req.URL, err)
	}

	return body, nil
}

func newRedirectError(kind error, req *Request, resp *http.Response, location, msg string) *RedirectError {
	return &RedirectError{
		Err:        kind,
		URL:        req.Req.URL,
		Method:     req.Req.Method,
		Location:   location,
		Message:    msg,
		StatusCode: resp.StatusCode,
	}
}
