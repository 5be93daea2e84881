package redirectx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"git.sr.ht/~jamesponddotco/xstd-go/xerrors"
	"gopkg.in/yaml.v3"
)

// ErrRedirectPolicy is returned when a redirect policy cannot be decoded.
const ErrRedirectPolicy xerrors.Error = "invalid redirect policy"

// ParseRedirectPolicy decodes a RedirectPolicy from a YAML or JSON document.
//
// The document is either a boolean or a mapping with the keys max, strict,
// referer, protocols and track_history. A true value, or a mapping, enables
// redirects with DefaultRedirectPolicy's values for every key it leaves out.
// A false, null or empty document disables redirects and returns a nil
// policy.
func ParseRedirectPolicy(data []byte) (*RedirectPolicy, error) {
	var node yaml.Node

	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedirectPolicy, err)
	}

	if len(node.Content) == 0 {
		return nil, nil
	}

	doc := node.Content[0]

	switch doc.Kind {
	case yaml.ScalarNode:
		if doc.Tag == "!!null" {
			return nil, nil
		}

		var enabled bool

		if err := doc.Decode(&enabled); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRedirectPolicy, err)
		}

		if !enabled {
			return nil, nil
		}

		return DefaultRedirectPolicy(), nil
	case yaml.MappingNode:
		policy := DefaultRedirectPolicy()

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(policy); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrRedirectPolicy, err)
		}

		if policy.Max < 0 {
			return nil, fmt.Errorf("%w: max must not be negative, got %d", ErrRedirectPolicy, policy.Max)
		}

		return policy, nil
	default:
		return nil, fmt.Errorf("%w: expected a boolean or a mapping at line %d", ErrRedirectPolicy, doc.Line)
	}
}
