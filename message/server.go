package message

import (
	"github.com/pkg/errors"

	"httpmsg/environ"
	sliceutil "httpmsg/lib/slice"
	"httpmsg/stream"
	"httpmsg/upload"
	"httpmsg/uri"
)

// ServerRequestOptions carries the optional construction inputs of
// an incoming request. Cookie, query and uploaded-file collections
// are caller-parsed snapshots; this package never parses bodies,
// cookie strings or query strings itself.
type ServerRequestOptions struct {
	RequestOptions

	ServerParams  map[string]string
	CookieParams  map[string]string
	QueryParams   map[string][]string
	UploadedFiles upload.FileMap
	ParsedBody    any
	Attributes    map[string]any
}

// ServerRequest is an immutable incoming HTTP request. On top of the
// request contract it carries read-only snapshots of the server
// parameters, cookies, query parameters, uploaded files, an optional
// parsed body and a request-scoped attribute map. All With methods,
// attributes included, return a new instance and never mutate the
// receiver.
type ServerRequest struct {
	request Request

	serverParams map[string]string
	cookieParams map[string]string
	queryParams  map[string][]string
	files        upload.FileMap
	parsedBody   any
	attributes   map[string]any
}

// NewServerRequest builds an incoming request the same way
// NewRequest builds an outgoing one, then snapshots the
// server-supplied collections.
func NewServerRequest(method, rawURI string, opts ServerRequestOptions) (*ServerRequest, error) {
	req, err := NewRequest(method, rawURI, opts.RequestOptions)
	if err != nil {
		return nil, err
	}
	return newServerRequest(req, opts)
}

// NewServerRequestWithURI is NewServerRequest for an already-built
// URI.
func NewServerRequestWithURI(method string, u *uri.URI, opts ServerRequestOptions) (*ServerRequest, error) {
	req, err := NewRequestWithURI(method, u, opts.RequestOptions)
	if err != nil {
		return nil, err
	}
	return newServerRequest(req, opts)
}

// ServerRequestFromEnviron builds the request a snapshot of ambient
// request metadata describes: method, URI, protocol version and
// header fields all come from the snapshot, and the raw variables
// become the server params. Ambient fields whose canonical name is
// not registered are dropped rather than failing the construction;
// explicit opts.Headers are validated as usual and win over ambient
// fields.
func ServerRequestFromEnviron(env environ.Context, opts ServerRequestOptions) (*ServerRequest, error) {
	u, err := uri.FromEnviron(env)
	if err != nil {
		return nil, errors.Wrap(err, "building uri")
	}

	method := env.Method
	if method == "" {
		method = "GET"
	}

	if opts.Version == "" {
		opts.Version = versionFromProtocol(env.Protocol)
	}
	opts.Headers = mergeEnvironFields(env, opts.Headers)

	if opts.ServerParams == nil {
		opts.ServerParams = env.Vars
	}

	return NewServerRequestWithURI(method, u, opts)
}

// mergeEnvironFields turns the snapshot's header variables into
// fields, dropping unregistered names, and lets explicit fields
// override ambient ones.
func mergeEnvironFields(env environ.Context, explicit map[string][]string) map[string][]string {
	probe := newHeaders(scopeRequest)

	merged := make(map[string][]string)
	for name, value := range env.HeaderFields() {
		canonical, tokens, err := probe.prepare(name, []string{value})
		if err != nil {
			continue
		}
		merged[canonical] = tokens
	}
	for name, values := range explicit {
		merged[canonicalFieldName(name)] = values
	}

	return merged
}

func newServerRequest(req *Request, opts ServerRequestOptions) (*ServerRequest, error) {
	if err := opts.UploadedFiles.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating uploaded files")
	}

	return &ServerRequest{
		request: *req,

		serverParams: cloneStringMap(opts.ServerParams),
		cookieParams: cloneStringMap(opts.CookieParams),
		queryParams:  cloneMultiMap(opts.QueryParams),
		files:        opts.UploadedFiles.Clone(),
		parsedBody:   opts.ParsedBody,
		attributes:   cloneAnyMap(opts.Attributes),
	}, nil
}

func (r *ServerRequest) clone() *ServerRequest {
	out := *r
	return &out
}

// Method returns the uppercase request method.
func (r *ServerRequest) Method() string { return r.request.Method() }

// URI returns the request URI.
func (r *ServerRequest) URI() *uri.URI { return r.request.URI() }

// RequestTarget returns the explicit override or the derived
// origin-form target.
func (r *ServerRequest) RequestTarget() string { return r.request.RequestTarget() }

// ProtocolVersion returns "1.0", "1.1" or "2.0".
func (r *ServerRequest) ProtocolVersion() string { return r.request.ProtocolVersion() }

// Headers returns a deep copy of all fields, keyed by canonical
// name.
func (r *ServerRequest) Headers() map[string][]string { return r.request.Headers() }

// HasHeader reports whether the field exists, matching the name
// case-insensitively.
func (r *ServerRequest) HasHeader(name string) bool { return r.request.HasHeader(name) }

// Header returns the field's values in insertion order, empty when
// absent.
func (r *ServerRequest) Header(name string) []string { return r.request.Header(name) }

// HeaderLine joins the field's values with ",".
func (r *ServerRequest) HeaderLine(name string) string { return r.request.HeaderLine(name) }

// Body returns the message body, never nil.
func (r *ServerRequest) Body() *stream.Stream { return r.request.Body() }

// ServerParams returns a copy of the raw server variables.
func (r *ServerRequest) ServerParams() map[string]string { return cloneStringMap(r.serverParams) }

// CookieParams returns a copy of the cookie snapshot.
func (r *ServerRequest) CookieParams() map[string]string { return cloneStringMap(r.cookieParams) }

// QueryParams returns a copy of the query-parameter snapshot.
func (r *ServerRequest) QueryParams() map[string][]string { return cloneMultiMap(r.queryParams) }

// UploadedFiles returns a copy of the uploaded-file tree.
func (r *ServerRequest) UploadedFiles() upload.FileMap { return r.files.Clone() }

// ParsedBody returns the deserialized body, nil when none was set.
func (r *ServerRequest) ParsedBody() any { return r.parsedBody }

// Attributes returns a copy of the attribute map.
func (r *ServerRequest) Attributes() map[string]any { return cloneAnyMap(r.attributes) }

// Attribute returns one attribute and whether it exists.
func (r *ServerRequest) Attribute(name string) (any, bool) {
	v, ok := r.attributes[name]
	return v, ok
}

// WithMethod returns a request with the method replaced.
func (r *ServerRequest) WithMethod(method string) (*ServerRequest, error) {
	req, err := r.request.WithMethod(method)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithURI returns a request pointing at u, with the same Host-header
// handling as Request.WithURI.
func (r *ServerRequest) WithURI(u *uri.URI, preserveHost bool) (*ServerRequest, error) {
	req, err := r.request.WithURI(u, preserveHost)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithRequestTarget overrides the derived request-target.
func (r *ServerRequest) WithRequestTarget(target string) (*ServerRequest, error) {
	req, err := r.request.WithRequestTarget(target)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithProtocolVersion returns a request with the protocol version
// replaced.
func (r *ServerRequest) WithProtocolVersion(v string) (*ServerRequest, error) {
	req, err := r.request.WithProtocolVersion(v)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithHeader returns a request with the field's values replaced.
func (r *ServerRequest) WithHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.request.WithHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithAddedHeader appends values to the field, creating it if
// needed.
func (r *ServerRequest) WithAddedHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.request.WithAddedHeader(name, values...)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// WithoutHeader returns a request without the field.
func (r *ServerRequest) WithoutHeader(name string) *ServerRequest {
	return r.wrap(r.request.WithoutHeader(name))
}

// WithBody returns a request with the body replaced.
func (r *ServerRequest) WithBody(body *stream.Stream) (*ServerRequest, error) {
	req, err := r.request.WithBody(body)
	if err != nil {
		return nil, err
	}
	return r.wrap(req), nil
}

// wrap rebuilds the server request around a possibly-changed inner
// request, preserving the identity short-circuit of the inner
// with-ers.
func (r *ServerRequest) wrap(req *Request) *ServerRequest {
	if req == &r.request {
		return r
	}

	out := r.clone()
	out.request = *req
	return out
}

// WithCookieParams returns a request with the cookie snapshot
// replaced.
func (r *ServerRequest) WithCookieParams(cookies map[string]string) *ServerRequest {
	out := r.clone()
	out.cookieParams = cloneStringMap(cookies)
	return out
}

// WithQueryParams returns a request with the query-parameter
// snapshot replaced.
func (r *ServerRequest) WithQueryParams(query map[string][]string) *ServerRequest {
	out := r.clone()
	out.queryParams = cloneMultiMap(query)
	return out
}

// WithUploadedFiles returns a request with the uploaded-file tree
// replaced. The tree is validated like at construction.
func (r *ServerRequest) WithUploadedFiles(files upload.FileMap) (*ServerRequest, error) {
	if err := files.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating uploaded files")
	}

	out := r.clone()
	out.files = files.Clone()
	return out, nil
}

// WithParsedBody returns a request with the parsed-body value
// replaced. Nil clears it.
func (r *ServerRequest) WithParsedBody(v any) *ServerRequest {
	out := r.clone()
	out.parsedBody = v
	return out
}

// WithAttribute returns a request whose attribute map additionally
// holds value under name. Attribute values are arbitrary, so no
// equality short-circuit applies; the receiver is never mutated.
func (r *ServerRequest) WithAttribute(name string, value any) *ServerRequest {
	attrs := make(map[string]any, len(r.attributes)+1)
	for k, v := range r.attributes {
		attrs[k] = v
	}
	attrs[name] = value

	out := r.clone()
	out.attributes = attrs
	return out
}

// WithoutAttribute returns a request without the named attribute.
// The receiver comes back unchanged when the attribute is absent.
func (r *ServerRequest) WithoutAttribute(name string) *ServerRequest {
	if _, ok := r.attributes[name]; !ok {
		return r
	}

	attrs := make(map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		if k != name {
			attrs[k] = v
		}
	}

	out := r.clone()
	out.attributes = attrs
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	clone := make(map[string]string, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

func cloneMultiMap(m map[string][]string) map[string][]string {
	clone := make(map[string][]string, len(m))
	for k, v := range m {
		clone[k] = sliceutil.Clone(v)
	}
	return clone
}

func cloneAnyMap(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
