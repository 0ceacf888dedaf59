package message

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"httpmsg/stream"
	"httpmsg/uri"
	"httpmsg/util/rule"
)

// Standard request methods, the only ones accepted.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.1
var methods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"CONNECT": {},
	"OPTIONS": {},
	"TRACE":   {},
}

// RequestOptions carries the optional construction inputs of a
// request. The zero value means protocol 1.1, no headers and an
// empty in-memory body.
type RequestOptions struct {
	Version string
	Headers map[string][]string
	Body    *stream.Stream
}

// Request is an immutable outgoing HTTP request: method, URI,
// protocol version, headers and body. Every With method returns a
// new instance, or the receiver itself when nothing would change.
type Request struct {
	message

	method string
	uri    *uri.URI

	// target overrides the derived request-target when non-empty.
	target string
}

// NewRequest parses rawURI and builds a request around it.
// Validation order: method, URI, protocol version, headers, body.
// When the URI carries a host and no explicit Host header is given,
// Host is populated as host[:port] with the default port elided.
func NewRequest(method, rawURI string, opts RequestOptions) (*Request, error) {
	if _, err := checkMethod(method); err != nil {
		return nil, err
	}

	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, errors.Wrap(err, "parsing uri")
	}
	return NewRequestWithURI(method, u, opts)
}

// NewRequestWithURI is NewRequest for an already-built URI.
func NewRequestWithURI(method string, u *uri.URI, opts RequestOptions) (*Request, error) {
	method, err := checkMethod(method)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("uri is nil")
	}

	msg, err := newMessage(scopeRequest, opts.Version, opts.Headers, opts.Body)
	if err != nil {
		return nil, err
	}

	r := &Request{message: msg, method: method, uri: u}

	if host := hostFieldValue(u); host != "" && !r.hasHeader("Host") {
		r.message, _, err = r.message.withHeaderValues("Host", []string{host}, true)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func checkMethod(method string) (string, error) {
	method = strings.ToUpper(method)
	if _, ok := methods[method]; !ok {
		return "", errors.Errorf("unsupported method: %q", method)
	}
	return method, nil
}

// hostFieldValue renders a URI's host for the Host field, with the
// port appended when present. An empty host yields "".
func hostFieldValue(u *uri.URI) string {
	host := u.Host()
	if host == "" {
		return ""
	}
	if port := u.Port(); port != nil {
		host += ":" + strconv.FormatUint(uint64(*port), 10)
	}
	return host
}

// Method returns the uppercase request method.
func (r *Request) Method() string { return r.method }

// URI returns the request URI.
func (r *Request) URI() *uri.URI { return r.uri }

// ProtocolVersion returns "1.0", "1.1" or "2.0".
func (r *Request) ProtocolVersion() string { return r.protocolVersion() }

// Headers returns a deep copy of all fields, keyed by canonical
// name.
func (r *Request) Headers() map[string][]string { return r.headerFields() }

// HasHeader reports whether the field exists, matching the name
// case-insensitively.
func (r *Request) HasHeader(name string) bool { return r.hasHeader(name) }

// Header returns the field's values in insertion order, empty when
// absent.
func (r *Request) Header(name string) []string { return r.header(name) }

// HeaderLine joins the field's values with ",".
func (r *Request) HeaderLine(name string) string { return r.headerLine(name) }

// Body returns the message body, never nil.
func (r *Request) Body() *stream.Stream { return r.body }

// RequestTarget returns the explicit override when one was set,
// otherwise the origin-form target derived from the URI: the path
// (or "/" when empty) plus "?query" when a query is present.
func (r *Request) RequestTarget() string {
	if r.target != "" {
		return r.target
	}

	target := r.uri.Path()
	if target == "" {
		target = "/"
	}
	if q := r.uri.Query(); q != "" {
		target += "?" + q
	}
	return target
}

// WithMethod returns a request with the method replaced. The method
// is validated like in NewRequest.
func (r *Request) WithMethod(method string) (*Request, error) {
	method, err := checkMethod(method)
	if err != nil {
		return nil, err
	}
	if r.method == method {
		return r, nil
	}

	out := *r
	out.method = method
	return &out, nil
}

// WithRequestTarget overrides the derived request-target. Every byte
// must belong to the URI character set (unreserved, reserved or
// percent); a literal space fails.
func (r *Request) WithRequestTarget(target string) (*Request, error) {
	if !isValidTarget(target) {
		return nil, errors.Errorf("request target %q contains invalid characters", target)
	}
	if r.target == target {
		return r, nil
	}

	out := *r
	out.target = target
	return &out, nil
}

func isValidTarget(target string) bool {
	for i := 0; i < len(target); i++ {
		c := rune(target[i])
		if rule.IsAlpha(c) || rule.IsDigit(c) {
			continue
		}
		switch c {
		case '-', '.', '_', '~', // unreserved
			'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', // sub-delims
			':', '/', '?', '#', '[', ']', '@', // gen-delims
			'%':
			continue
		}
		return false
	}
	return true
}

// WithURI returns a request pointing at u. The Host header is
// re-derived from u unless preserveHost is true and a non-empty Host
// header already exists; a URI without a host leaves the header
// untouched.
func (r *Request) WithURI(u *uri.URI, preserveHost bool) (*Request, error) {
	if u == nil {
		return nil, errors.New("uri is nil")
	}
	if r.uri == u {
		return r, nil
	}

	out := *r
	out.uri = u

	host := hostFieldValue(u)
	if host == "" || (preserveHost && r.headerLine("Host") != "") {
		return &out, nil
	}

	msg, _, err := out.message.withHeaderValues("Host", []string{host}, true)
	if err != nil {
		return nil, err
	}
	out.message = msg

	return &out, nil
}

// WithProtocolVersion returns a request with the protocol version
// replaced; v must be one of "1.0", "1.1", "2.0".
func (r *Request) WithProtocolVersion(v string) (*Request, error) {
	msg, changed, err := r.withProtocolVersion(v)
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}

	out := *r
	out.message = msg
	return &out, nil
}

// WithHeader returns a request with the field's values replaced.
// Each value is split on commas outside quotes and filtered to
// printable ASCII; the canonical name must be registered.
func (r *Request) WithHeader(name string, values ...string) (*Request, error) {
	return r.applyHeader(name, values, true)
}

// WithAddedHeader appends values to the field, creating it if
// needed.
func (r *Request) WithAddedHeader(name string, values ...string) (*Request, error) {
	return r.applyHeader(name, values, false)
}

func (r *Request) applyHeader(name string, values []string, replace bool) (*Request, error) {
	msg, changed, err := r.withHeaderValues(name, values, replace)
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}

	out := *r
	out.message = msg
	return &out, nil
}

// WithoutHeader returns a request without the field. A missing
// field is not an error; the receiver is returned unchanged.
func (r *Request) WithoutHeader(name string) *Request {
	msg, changed := r.withoutHeader(name)
	if !changed {
		return r
	}

	out := *r
	out.message = msg
	return &out
}

// WithBody returns a request with the body replaced. Nil is
// rejected.
func (r *Request) WithBody(body *stream.Stream) (*Request, error) {
	msg, changed, err := r.withBody(body)
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}

	out := *r
	out.message = msg
	return &out, nil
}
