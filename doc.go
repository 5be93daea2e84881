// Package redirectx is an HTTP client that follows redirects according to an
// explicit RedirectPolicy.
//
// The underlying net/http client never follows redirects itself. Instead,
// every response is handed to RedirectPolicy.Evaluate, which decides whether
// it is a redirect to follow and builds the next request: relative Location
// values are resolved against the current URI, schemes are checked against an
// allow-list, methods and bodies are rewritten per status code, credentials
// are dropped when the host changes and a Referer header may be added.
// RedirectPolicy.Follow drives that decision loop over any DispatchFunc, and
// Client wires it together with retries, rate limiting and caching.
package redirectx
