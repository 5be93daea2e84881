package redirectx

import (
	"context"
	"net/http"
	"strconv"
)

// DispatchFunc sends a single request and returns its response without
// following redirects.
type DispatchFunc func(ctx context.Context, req *Request) (*http.Response, error)

// Follow sends req using dispatch and follows the redirects it receives
// according to the policy, returning the first response that is not a
// redirect to follow.
//
// Hops are sent one at a time. Redirect responses that are not returned have
// their body drained and closed. If ctx is done before a hop is sent, the
// chain stops with ctx's error. Errors returned by dispatch are returned
// unchanged.
//
// Every hop, the first included, is sent bound to ctx rather than to the
// context req was created with; req itself is never modified. A dispatch
// that returns neither a response nor an error fails with ErrNoResponse.
//
// If p is nil, req is sent once and its response is returned as-is.
func (p *RedirectPolicy) Follow(ctx context.Context, req *Request, dispatch DispatchFunc) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = &Request{Req: req.Req.WithContext(ctx)}

	resp, err := dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, ErrNoResponse
	}

	if p == nil {
		return resp, nil
	}

	rc := NewRedirectContext(req)

	for {
		decision := p.Evaluate(req, resp, rc)

		switch decision.Kind {
		case DecisionTerminal:
			if p.TrackHistory {
				annotateHistory(decision.Response, rc)
			}

			return decision.Response, nil
		case DecisionFailure:
			discard(resp)

			return nil, decision.Err
		}

		next := decision.Request

		if p.OnRedirect != nil {
			if err = p.OnRedirect(req.Req, resp, next.Req.URL); err != nil {
				discard(resp)

				return nil, newRedirectError(ErrRedirectAborted, req, resp, resp.Header.Get("Location"), err.Error())
			}
		}

		discard(resp)

		if err = ctx.Err(); err != nil {
			return nil, err
		}

		next.Req = next.Req.WithContext(ctx)

		resp, err = dispatch(ctx, next)
		if err != nil {
			return nil, err
		}

		if resp == nil {
			return nil, ErrNoResponse
		}

		req = next
	}
}

// annotateHistory records the followed URIs and status codes on resp.
func annotateHistory(resp *http.Response, rc *RedirectContext) {
	if resp == nil {
		return
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	resp.Header.Del(HeaderRedirectHistory)
	resp.Header.Del(HeaderRedirectStatusHistory)

	for i, uri := range rc.History {
		resp.Header.Add(HeaderRedirectHistory, uri.String())
		resp.Header.Add(HeaderRedirectStatusHistory, strconv.Itoa(rc.StatusHistory[i]))
	}
}

// discard drains and closes the body of a response that won't be returned.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	_ = DrainResponseBody(resp)
}
