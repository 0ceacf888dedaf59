package stream

import (
	"strings"

	"github.com/pkg/errors"

	"httpmsg/util/rule"
)

// Opener opens the backing handle for one wrapper scheme. The target
// it receives has the scheme prefix already removed.
type Opener func(target string, m Mode) (Handle, error)

// WrapperRegistry routes scheme-prefixed targets ("mem://scratch")
// to the Opener registered for that scheme. Targets without a scheme
// open as filesystem paths. Register wrappers at setup time; the
// registry is not safe for concurrent mutation.
type WrapperRegistry struct {
	openers map[string]Opener
}

// NewWrapperRegistry returns an empty registry. Most callers want
// Default instead.
func NewWrapperRegistry() *WrapperRegistry {
	return &WrapperRegistry{openers: map[string]Opener{}}
}

// Default returns a fresh registry with the built-in wrappers:
// "file" for filesystem paths and "mem" for empty in-memory buffers.
func Default() *WrapperRegistry {
	r := NewWrapperRegistry()
	_ = r.Register("file", func(target string, m Mode) (Handle, error) {
		return openFile(target, m)
	})
	_ = r.Register("mem", func(string, Mode) (Handle, error) {
		return &memHandle{}, nil
	})
	return r
}

// Register adds an Opener for scheme. Schemes are case-insensitive.
func (r *WrapperRegistry) Register(scheme string, open Opener) error {
	scheme = strings.ToLower(scheme)
	if err := validateWrapperScheme(scheme); err != nil {
		return err
	}
	if open == nil {
		return errors.New("opener is nil")
	}
	if _, ok := r.openers[scheme]; ok {
		return errors.Errorf("wrapper scheme %q is already registered", scheme)
	}

	r.openers[scheme] = open
	return nil
}

// Lookup reports the Opener registered for scheme.
func (r *WrapperRegistry) Lookup(scheme string) (Opener, bool) {
	open, ok := r.openers[strings.ToLower(scheme)]
	return open, ok
}

// Open parses mode, resolves target through the registry and wraps
// the opened handle in a Stream. Filesystem targets are validated
// before any descriptor is opened.
func (r *WrapperRegistry) Open(target, mode string) (*Stream, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	scheme, rest, ok := SplitScheme(target)
	if !ok {
		h, err := openFile(target, m)
		if err != nil {
			return nil, err
		}
		return newStream(h, m, target), nil
	}

	open, ok := r.openers[scheme]
	if !ok {
		return nil, errors.Errorf("unregistered wrapper scheme: %q", scheme)
	}

	h, err := open(rest, m)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", target)
	}
	return newStream(h, m, target), nil
}

// Open opens target with a Default registry.
func Open(target, mode string) (*Stream, error) {
	return Default().Open(target, mode)
}

// SplitScheme splits a "scheme://rest" target. Targets without a
// scheme prefix come back whole in rest with ok false.
func SplitScheme(target string) (scheme, rest string, ok bool) {
	scheme, rest, ok = strings.Cut(target, "://")
	if !ok || scheme == "" {
		return "", target, false
	}
	return strings.ToLower(scheme), rest, true
}

// validateWrapperScheme applies the URI scheme grammar.
// See: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func validateWrapperScheme(s string) error {
	if s == "" {
		return errors.New("wrapper scheme is empty")
	}
	if !rule.IsAlpha(rune(s[0])) {
		return errors.Errorf("wrapper scheme %q must start with a letter", s)
	}

	for _, c := range s[1:] {
		if rule.IsAlpha(c) || rule.IsDigit(c) || strings.ContainsRune("+-.", c) {
			continue
		}
		return errors.Errorf("wrapper scheme %q contains invalid character %q", s, c)
	}
	return nil
}
