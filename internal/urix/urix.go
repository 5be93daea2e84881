// Package urix provides the URI primitives used when following redirects:
// resolving Location values, comparing origins and serializing Referer
// values.
package urix

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"git.sr.ht/~jamesponddotco/xstd-go/xerrors"
)

const (
	// ErrEmptyReference is returned when a Location value is empty.
	ErrEmptyReference xerrors.Error = "empty URI reference"

	// ErrMissingHost is returned when a reference resolves to an http or
	// https URI without a host, or when a relative reference has no base.
	ErrMissingHost xerrors.Error = "resolved URI has no host"
)

const (
	_schemeHTTP  string = "http"
	_schemeHTTPS string = "https"
)

// Resolve resolves ref against base following RFC 3986, section 5.2.
//
// Absolute references are returned as parsed. Relative references inherit
// the scheme and authority of base, have their path merged with base's and
// keep only their own query.
//
// Resolve does not require the result to have a host, since schemes such as
// file or mailto have none. Use CheckHost once the scheme is known.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyReference
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		return nil, fmt.Errorf("%q: %w", ref, err)
	}

	var target *url.URL

	if parsed.IsAbs() {
		target = parsed
	} else {
		if base == nil {
			return nil, fmt.Errorf("%q: %w", ref, ErrMissingHost)
		}

		target = base.ResolveReference(parsed)
	}

	return target, nil
}

// CheckHost returns ErrMissingHost if u is an http or https URI without a
// host. URIs of other schemes are not checked.
func CheckHost(u *url.URL) error {
	if u.Host != "" {
		return nil
	}

	switch strings.ToLower(u.Scheme) {
	case _schemeHTTP, _schemeHTTPS:
		return fmt.Errorf("%q: %w", u.String(), ErrMissingHost)
	default:
		return nil
	}
}

// SameHost reports whether a and b share the same authority, that is host and
// port, compared case-insensitively.
func SameHost(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}

	return strings.EqualFold(authority(a), authority(b))
}

// IsDowngrade reports whether moving from one URI to another goes from https
// to plain http.
func IsDowngrade(from, to *url.URL) bool {
	if from == nil || to == nil {
		return false
	}

	return strings.EqualFold(from.Scheme, _schemeHTTPS) && strings.EqualFold(to.Scheme, _schemeHTTP)
}

// Referer returns the value of a Referer header pointing at u. User
// information and fragment are never included.
func Referer(u *url.URL) string {
	if u == nil {
		return ""
	}

	ref := *u
	ref.User = nil
	ref.Fragment = ""
	ref.RawFragment = ""

	return ref.String()
}

// SchemeAllowed reports whether the scheme of u is one of schemes, compared
// case-insensitively.
func SchemeAllowed(u *url.URL, schemes []string) bool {
	for _, scheme := range schemes {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}

	return false
}

// authority returns u's host with the scheme's default port made explicit,
// so that http://example.com and http://example.com:80 compare equal.
func authority(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}

	switch strings.ToLower(u.Scheme) {
	case _schemeHTTP:
		return u.Host + ":80"
	case _schemeHTTPS:
		return u.Host + ":443"
	default:
		return u.Host
	}
}
