package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// schemePorts is the registered scheme set and the well-known port of
// each scheme. A stored port equal to its scheme's entry is elided.
var schemePorts = map[string]uint16{
	"http":  80,
	"https": 443,
}

// URI is an immutable URI value object. Components are stored in
// percent-encoded, normalized form: scheme and host lowercased, a port
// equal to the scheme's well-known port elided. Mutation happens
// through the With* methods, which leave the receiver untouched.
type URI struct {
	scheme   string
	userInfo string
	host     string
	port     *uint16
	path     string
	query    string
	fragment string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u *URI) IsRelativeRef() bool { return u.scheme == "" }

func (u *URI) Scheme() string   { return u.scheme }
func (u *URI) UserInfo() string { return u.userInfo }
func (u *URI) Host() string     { return u.host }
func (u *URI) Path() string     { return u.path }
func (u *URI) Query() string    { return u.query }
func (u *URI) Fragment() string { return u.fragment }

// Port returns the stored port, or nil when absent or elided. The
// pointee is a copy.
func (u *URI) Port() *uint16 {
	if u.port == nil {
		return nil
	}
	p := *u.port
	return &p
}

// Authority is empty iff the host is empty; otherwise
// [userinfo@]host[:port].
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2
func (u *URI) Authority() string {
	if u.host == "" {
		return ""
	}

	b := new(strings.Builder)
	if u.userInfo != "" {
		b.WriteString(u.userInfo)
		b.WriteByte('@')
	}
	b.WriteString(u.host)
	if u.port != nil {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(*u.port), 10))
	}

	return b.String()
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	b := new(strings.Builder)
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}

	if authority := u.Authority(); authority != "" {
		b.WriteString("//")
		b.WriteString(authority)
	}

	b.WriteString(u.path)

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}

	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// WithScheme returns a URI with the given scheme. The port elision is
// re-evaluated against the new scheme's well-known port.
func (u *URI) WithScheme(scheme string) (*URI, error) {
	scheme = strings.ToLower(scheme)
	if err := assertSupportedScheme(scheme); err != nil {
		return nil, errors.Wrap(err, "scheme is not valid")
	}

	if scheme == u.scheme {
		return u, nil
	}

	clone := *u
	clone.scheme = scheme
	clone.elidePort()
	if err := clone.validateShape(); err != nil {
		return nil, err
	}
	return &clone, nil
}

// WithUserInfo returns a URI with the given user information. An empty
// user clears it; the password is omitted from the stored form when
// empty. Both parts are percent-encoded on their own, so a ':' inside
// either is data, not the delimiter.
func (u *URI) WithUserInfo(user, password string) (*URI, error) {
	var userInfo string
	if user != "" {
		userInfo = escape(user, encodeUserInfoPart)
		if password != "" {
			userInfo += ":" + escape(password, encodeUserInfoPart)
		}
	}

	if userInfo == u.userInfo {
		return u, nil
	}

	clone := *u
	clone.userInfo = userInfo
	return &clone, nil
}

// WithHost returns a URI with the given host, lowercased and brought
// to stored form. An empty host clears the authority.
func (u *URI) WithHost(host string) (*URI, error) {
	normalized, err := normalizeHost(host)
	if err != nil {
		return nil, errors.Wrap(err, "host is not valid")
	}

	if normalized == u.host {
		return u, nil
	}

	clone := *u
	clone.host = normalized
	if err := clone.validateShape(); err != nil {
		return nil, err
	}
	return &clone, nil
}

// WithPort returns a URI with the given port, or with no port when nil.
// A port equal to the scheme's well-known port is stored as nil.
func (u *URI) WithPort(port *uint16) (*URI, error) {
	if port != nil && *port == 0 {
		return nil, errors.New("port is out of range [1, 65535]")
	}

	if equalPort(u.port, port) {
		return u, nil
	}

	clone := *u
	if port != nil {
		p := *port
		clone.port = &p
	} else {
		clone.port = nil
	}
	clone.elidePort()
	return &clone, nil
}

// WithPath returns a URI with the given path, percent-encoded.
func (u *URI) WithPath(path string) (*URI, error) {
	encoded := escape(path, encodePath)
	if encoded == u.path {
		return u, nil
	}

	clone := *u
	clone.path = encoded
	if err := clone.validateShape(); err != nil {
		return nil, err
	}
	return &clone, nil
}

// WithQuery returns a URI with the given query, percent-encoded. The
// value must not carry the '?' delimiter.
func (u *URI) WithQuery(query string) (*URI, error) {
	encoded := escape(query, encodeQuery)
	if encoded == u.query {
		return u, nil
	}

	clone := *u
	clone.query = encoded
	return &clone, nil
}

// WithFragment returns a URI with the given fragment, percent-encoded.
// The value must not carry the '#' delimiter.
func (u *URI) WithFragment(fragment string) (*URI, error) {
	encoded := escape(fragment, encodeFragment)
	if encoded == u.fragment {
		return u, nil
	}

	clone := *u
	clone.fragment = encoded
	return &clone, nil
}

func (u *URI) elidePort() {
	if u.port == nil || u.scheme == "" {
		return
	}
	if def, ok := schemePorts[u.scheme]; ok && def == *u.port {
		u.port = nil
	}
}

// validateShape enforces the rules that span components. Stored
// components are already encoded; the delimiters these rules inspect
// survive encoding.
func (u *URI) validateShape() error {
	if u.host != "" {
		if u.path != "" && u.path[0] != '/' {
			return errors.New("path must be empty or start with '/' when authority is present")
		}
		return nil
	}

	if strings.HasPrefix(u.path, "//") {
		return errors.New("path must not start with '//' when authority is absent")
	}

	if u.scheme == "" {
		seg := u.path
		if idx := strings.IndexByte(seg, '/'); idx >= 0 {
			seg = seg[:idx]
		}
		if strings.ContainsRune(seg, ':') {
			return errors.New("first path segment of a relative reference must not contain ':'")
		}
	}

	return nil
}

func equalPort(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
