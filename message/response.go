package message

import (
	"github.com/pkg/errors"

	"httpmsg/message/status"
	"httpmsg/stream"
)

// ResponseOptions carries the optional construction inputs of a
// response. An empty Reason means the canonical phrase for the
// status code.
type ResponseOptions struct {
	Version string
	Headers map[string][]string
	Body    *stream.Stream
	Reason  string
}

// Response is an immutable HTTP response: status, protocol version,
// headers and body.
type Response struct {
	message

	code   uint
	reason string
}

// NewResponse builds a response with the given status code.
// Validation order: status code, protocol version, headers, body.
func NewResponse(code uint, opts ResponseOptions) (*Response, error) {
	reason, err := resolveReason(code, opts.Reason)
	if err != nil {
		return nil, err
	}

	msg, err := newMessage(scopeResponse, opts.Version, opts.Headers, opts.Body)
	if err != nil {
		return nil, err
	}

	return &Response{message: msg, code: code, reason: reason}, nil
}

// resolveReason validates the code range and picks the reason
// phrase: the explicit one when given, else the canonical phrase,
// else "".
func resolveReason(code uint, reason string) (string, error) {
	if code < 100 || code > 599 {
		return "", errors.Errorf("status code %d is out of range [100, 599]", code)
	}
	if reason != "" {
		return reason, nil
	}

	phrase, _ := status.Reason(code)
	return phrase, nil
}

// StatusCode returns the response status code.
func (r *Response) StatusCode() uint { return r.code }

// ReasonPhrase returns the explicit or canonical reason phrase, ""
// when the code has neither.
func (r *Response) ReasonPhrase() string { return r.reason }

// ProtocolVersion returns "1.0", "1.1" or "2.0".
func (r *Response) ProtocolVersion() string { return r.protocolVersion() }

// Headers returns a deep copy of all fields, keyed by canonical
// name.
func (r *Response) Headers() map[string][]string { return r.headerFields() }

// HasHeader reports whether the field exists, matching the name
// case-insensitively.
func (r *Response) HasHeader(name string) bool { return r.hasHeader(name) }

// Header returns the field's values in insertion order, empty when
// absent.
func (r *Response) Header(name string) []string { return r.header(name) }

// HeaderLine joins the field's values with ",".
func (r *Response) HeaderLine(name string) string { return r.headerLine(name) }

// Body returns the message body, never nil.
func (r *Response) Body() *stream.Stream { return r.body }

// WithStatus returns a response with the status replaced. An empty
// reason selects the canonical phrase for the new code.
func (r *Response) WithStatus(code uint, reason string) (*Response, error) {
	resolved, err := resolveReason(code, reason)
	if err != nil {
		return nil, err
	}
	if r.code == code && r.reason == resolved {
		return r, nil
	}

	out := *r
	out.code = code
	out.reason = resolved
	return &out, nil
}

// WithProtocolVersion returns a response with the protocol version
// replaced; v must be one of "1.0", "1.1", "2.0".
func (r *Response) WithProtocolVersion(v string) (*Response, error) {
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

// WithHeader returns a response with the field's values replaced.
func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	return r.applyHeader(name, values, true)
}

// WithAddedHeader appends values to the field, creating it if
// needed.
func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	return r.applyHeader(name, values, false)
}

func (r *Response) applyHeader(name string, values []string, replace bool) (*Response, error) {
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

// WithoutHeader returns a response without the field. A missing
// field is not an error; the receiver is returned unchanged.
func (r *Response) WithoutHeader(name string) *Response {
	msg, changed := r.withoutHeader(name)
	if !changed {
		return r
	}

	out := *r
	out.message = msg
	return &out
}

// WithBody returns a response with the body replaced. Nil is
// rejected.
func (r *Response) WithBody(body *stream.Stream) (*Response, error) {
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
