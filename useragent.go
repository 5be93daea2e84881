package redirectx

import (
	"strings"

	"git.sr.ht/~jamesponddotco/redirectx-go/internal/build"
	"git.sr.ht/~jamesponddotco/redirectx-go/internal/separator"
)

const (
	_goClientUserAgent string = "Go-http-client/1.1"
)

// UserAgent represents the User-Agent header value, as defined in [RFC 7231,
// section 5.5.3].
//
// The client sets it once on the original request; every request built to
// follow a redirect inherits it.
//
// [RFC 7231, section 5.5.3]: https://tools.ietf.org/html/rfc7231#section-5.5.3
type UserAgent struct {
	// Token is the product token.
	Token string

	// Version is the product version.
	Version string

	// Comment is the product comment.
	Comment []string
}

// DefaultUserAgent returns the default User-Agent header value for the
// redirectx package.
func DefaultUserAgent() *UserAgent {
	return &UserAgent{
		Token:   build.Name,
		Version: build.Version,
		Comment: []string{
			build.UserAgentURL,
			_goClientUserAgent,
		},
	}
}

// String returns the string representation of the User-Agent header value.
func (ua *UserAgent) String() string {
	if ua == nil || ua.Token == "" || ua.Version == "" {
		return ""
	}

	var builder strings.Builder

	builder.Grow(ua.estimateLength())

	builder.WriteString(ua.Token)
	builder.WriteString(separator.ForwardSlash)
	builder.WriteString(ua.Version)

	if len(ua.Comment) == 0 {
		return builder.String()
	}

	builder.WriteString(separator.Space + separator.OpenParenthesis)

	for i, comment := range ua.Comment {
		if i > 0 {
			builder.WriteString(separator.Colon + separator.Space)
		}

		builder.WriteString(stripParentheses(comment))
	}

	builder.WriteString(separator.CloseParenthesis)

	return builder.String()
}

// estimateLength returns the expected length of the header value, used to
// size the builder in String.
func (ua *UserAgent) estimateLength() int {
	length := len(ua.Token) + len(ua.Version) + len(separator.ForwardSlash)

	if len(ua.Comment) > 0 {
		length += len(separator.Space + separator.OpenParenthesis + separator.CloseParenthesis)
	}

	for _, comment := range ua.Comment {
		length += len(comment) + len(separator.Colon+separator.Space)
	}

	return length
}

// stripParentheses removes the characters that would end a comment early.
func stripParentheses(comment string) string {
	return strings.Map(func(r rune) rune {
		if r == '(' || r == ')' {
			return -1
		}

		return r
	}, comment)
}
