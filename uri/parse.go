package uri

import (
	"strconv"
	"strings"

	"httpmsg/environ"

	"github.com/pkg/errors"
)

// Parse builds a URI from its string form. The empty string yields the
// empty URI. The grammar is
//
//	(scheme "://" [userinfo "@"] host [":" port])? path ["?" query] ["#" fragment]
//
// Component bytes outside their character class are percent-encoded in
// the stored form rather than rejected; structural violations fail.
func Parse(raw string) (*URI, error) {
	if containsCTL(raw) {
		return nil, errors.New("URI must not contain CTL bytes")
	}

	u := &URI{}

	scheme, rest, err := cutScheme(raw)
	if err != nil {
		return nil, errors.Wrap(err, "cutting scheme")
	}
	u.scheme = strings.ToLower(scheme)
	if u.scheme != "" {
		if _, ok := schemePorts[u.scheme]; !ok {
			return nil, errors.Errorf("unsupported scheme: %q", u.scheme)
		}
	}

	if strings.HasPrefix(rest, "//") {
		authorityRaw, after := rest[2:], ""
		if idx := strings.IndexAny(authorityRaw, "/?#"); idx >= 0 {
			authorityRaw, after = authorityRaw[:idx], authorityRaw[idx:]
		}

		if err := u.parseAuthority(authorityRaw); err != nil {
			return nil, errors.Wrap(err, "parsing authority")
		}
		rest = after
	}

	path, query, frag := splitPathQueryFrag(rest)

	u.path = escape(path, encodePath)
	if len(query) > 0 {
		// Strip '?' from query.
		u.query = escape(query[1:], encodeQuery)
	}
	if len(frag) > 0 {
		// Strip '#' from fragment.
		u.fragment = escape(frag[1:], encodeFragment)
	}

	if err := u.validateShape(); err != nil {
		return nil, err
	}
	u.elidePort()

	return u, nil
}

// FromEnviron builds a URI from an ambient request-context snapshot.
// Unlike Parse it tolerates an empty host, since a bare path is all
// some deployments can derive.
func FromEnviron(env environ.Context) (*URI, error) {
	u := &URI{}

	u.scheme = strings.ToLower(env.Scheme)
	if u.scheme != "" {
		if _, ok := schemePorts[u.scheme]; !ok {
			return nil, errors.Errorf("unsupported scheme: %q", u.scheme)
		}
	}

	if env.User != "" {
		u.userInfo = escape(env.User, encodeUserInfoPart)
		if env.Password != "" {
			u.userInfo += ":" + escape(env.Password, encodeUserInfoPart)
		}
	}

	var err error
	if u.host, err = normalizeHost(env.Host); err != nil {
		return nil, errors.Wrap(err, "host is not valid")
	}

	if env.Port != nil {
		if *env.Port == 0 {
			return nil, errors.New("port is out of range [1, 65535]")
		}
		p := *env.Port
		u.port = &p
	}

	u.path = escape(env.Path, encodePath)
	u.query = escape(env.Query, encodeQuery)

	if err := u.validateShape(); err != nil {
		return nil, err
	}
	u.elidePort()

	return u, nil
}

// cutScheme cuts the scheme off raw. A scheme is only recognized when
// ':' appears before any other delimiter and is followed by "//"; a
// lone ':' is left for the path shape rules to judge.
func cutScheme(raw string) (scheme, rest string, err error) {
	idx := strings.IndexAny(raw, ":/?#")
	if idx < 0 || raw[idx] != ':' {
		return "", raw, nil
	}
	if !strings.HasPrefix(raw[idx:], "://") {
		return "", raw, nil
	}

	if err := assertValidScheme(raw[:idx]); err != nil {
		return "", "", err
	}

	return raw[:idx], raw[idx+1:], nil
}

func (u *URI) parseAuthority(raw string) error {
	var userInfo, hostPort string
	if idx := strings.Index(raw, "@"); idx >= 0 {
		userInfo, hostPort = raw[:idx], raw[idx+1:]
	} else {
		hostPort = raw
	}

	u.userInfo = escape(userInfo, encodeUserInfo)

	host, portPart, err := cutPort(hostPort)
	if err != nil {
		return err
	}
	if host == "" {
		return errors.New("authority has empty host")
	}

	if u.host, err = normalizeHost(host); err != nil {
		return errors.Wrap(err, "host is not valid")
	}

	if u.port, err = parsePort(portPart); err != nil {
		return errors.Wrap(err, "parsing port")
	}

	return nil
}

// cutPort splits a trailing port designator off the host part. A
// bracketed IP literal keeps its inner colons.
func cutPort(raw string) (host, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP literal")
		}
		return raw[:idx+1], raw[idx+1:], nil
	}

	if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		return raw[:idx], raw[idx:], nil
	}
	return raw, "", nil
}

// parsePort reads a ":port" designator. Practical ports fit uint16,
// which is narrower than the RFC's *DIGIT but far more usable.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
func parsePort(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	if s[0] != ':' {
		return nil, errors.New("port is not delimited by ':'")
	}

	s = s[1:]
	if s == "" {
		return nil, errors.New("port is empty")
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse uint")
	}
	if n == 0 {
		return nil, errors.New("port is out of range [1, 65535]")
	}
	if s[0] == '0' {
		return nil, errors.New("port has leading zero")
	}

	p := uint16(n)
	return &p, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	path = raw
	return
}
