package message

import (
	"strings"

	"github.com/pkg/errors"

	sliceutil "httpmsg/lib/slice"
	"httpmsg/stream"
)

// Supported protocol versions.
var supportedVersions = map[string]struct{}{
	"1.0": {},
	"1.1": {},
	"2.0": {},
}

const defaultVersion = "1.1"

// message is the immutable core shared by requests and responses:
// a protocol version, a header store and exactly one body stream.
// With-er helpers return a changed copy or the receiver untouched;
// the concrete message types wrap them to keep their own type.
type message struct {
	version string
	headers headers
	body    *stream.Stream
}

func newMessage(scope headerScope, version string, fields map[string][]string, body *stream.Stream) (message, error) {
	if version == "" {
		version = defaultVersion
	}
	if err := checkVersion(version); err != nil {
		return message{}, err
	}

	h := newHeaders(scope)
	for name, values := range fields {
		canonical, tokens, err := h.prepare(name, values)
		if err != nil {
			return message{}, err
		}
		h.underlying[canonical] = tokens
	}

	if body == nil {
		body = stream.FromString("")
	}

	return message{version: version, headers: h, body: body}, nil
}

func checkVersion(v string) error {
	if _, ok := supportedVersions[v]; !ok {
		return errors.Errorf("unsupported protocol version: %q", v)
	}
	return nil
}

// versionFromProtocol extracts "1.1" from a protocol identifier like
// "HTTP/1.1". An empty protocol maps to the default version.
func versionFromProtocol(protocol string) string {
	if protocol == "" {
		return defaultVersion
	}
	return strings.TrimPrefix(protocol, "HTTP/")
}

func (m message) protocolVersion() string { return m.version }

func (m message) headerFields() map[string][]string { return m.headers.fields() }

func (m message) hasHeader(name string) bool {
	_, ok := m.headers.values(name)
	return ok
}

func (m message) header(name string) []string {
	v, ok := m.headers.values(name)
	if !ok {
		return []string{}
	}
	return sliceutil.Clone(v)
}

func (m message) headerLine(name string) string {
	return strings.Join(m.header(name), ",")
}

func (m message) withProtocolVersion(v string) (message, bool, error) {
	if err := checkVersion(v); err != nil {
		return message{}, false, err
	}
	if m.version == v {
		return m, false, nil
	}

	out := m
	out.version = v
	return out, true, nil
}

// withHeaderValues replaces or extends one field. The second return
// reports whether anything changed; an unchanged result is the
// receiver itself.
func (m message) withHeaderValues(name string, values []string, replace bool) (message, bool, error) {
	canonical, tokens, err := m.headers.prepare(name, values)
	if err != nil {
		return message{}, false, err
	}

	current, exists := m.headers.underlying[canonical]

	next := tokens
	if !replace && exists {
		next = make([]string, 0, len(current)+len(tokens))
		next = append(next, current...)
		next = append(next, tokens...)
	}

	if exists && sliceutil.Equal(current, next) {
		return m, false, nil
	}

	h := m.headers.clone()
	h.underlying[canonical] = next

	out := m
	out.headers = h
	return out, true, nil
}

func (m message) withoutHeader(name string) (message, bool) {
	canonical := canonicalFieldName(name)
	if _, ok := m.headers.underlying[canonical]; !ok {
		return m, false
	}

	h := m.headers.clone()
	delete(h.underlying, canonical)

	out := m
	out.headers = h
	return out, true
}

func (m message) withBody(body *stream.Stream) (message, bool, error) {
	if body == nil {
		return message{}, false, errors.New("body is nil")
	}
	if m.body == body {
		return m, false, nil
	}

	out := m
	out.body = body
	return out, true, nil
}
