// Package build provides build information about [the redirectx package].
//
// [the redirectx package]: https://godocs.io/git.sr.ht/~jamesponddotco/redirectx-go
package build

const (
	// Name is the name of the package.
	Name string = "redirectx"

	// Version is the version of the package.
	Version string = "0.2.0"

	// URL is the URL of the package.
	URL string = "https://git.sr.ht/~jamesponddotco/redirectx-go"

	// UserAgentURL is the URL of the package used in User-Agent headers.
	UserAgentURL string = "+https://git.sr.ht/~jamesponddotco/redirectx-go"
)
