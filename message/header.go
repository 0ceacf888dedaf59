package message

import (
	"strings"

	"github.com/pkg/errors"

	sliceutil "httpmsg/lib/slice"
	"httpmsg/util/rule"
)

// headerScope selects which registered field names a message class
// accepts on top of the general set.
type headerScope int

const (
	scopeGeneral headerScope = iota
	scopeRequest
	scopeResponse
)

// General and entity field names, accepted by every message.
// Reference: https://datatracker.ietf.org/doc/html/rfc2616#section-4.5
// Reference: https://datatracker.ietf.org/doc/html/rfc2616#section-7.1
var generalFieldNames = registry(
	"Cache-Control", "Connection", "Date", "Pragma", "Trailer",
	"Transfer-Encoding", "Upgrade", "Via", "Warning",

	"Allow", "Content-Encoding", "Content-Language", "Content-Length",
	"Content-Location", "Content-Md5", "Content-Range", "Content-Type",
	"Expires", "Last-Modified",
)

// Reference: https://datatracker.ietf.org/doc/html/rfc2616#section-5.3
var requestFieldNames = registry(
	"Accept", "Accept-Charset", "Accept-Encoding", "Accept-Language",
	"Authorization", "Cookie", "Expect", "From", "Host", "If-Match",
	"If-Modified-Since", "If-None-Match", "If-Range",
	"If-Unmodified-Since", "Max-Forwards", "Proxy-Authorization",
	"Range", "Referer", "Te", "User-Agent",
)

// Reference: https://datatracker.ietf.org/doc/html/rfc2616#section-6.2
var responseFieldNames = registry(
	"Accept-Ranges", "Age", "Etag", "Location", "Proxy-Authenticate",
	"Retry-After", "Server", "Set-Cookie", "Vary", "Www-Authenticate",
)

func registry(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, name := range names {
		m[name] = struct{}{}
	}
	return m
}

// headers is the case-insensitive multi-value field store of a
// message. Keys are kept in canonical form; value order and
// duplicates within a field are preserved.
type headers struct {
	scope      headerScope
	underlying map[string][]string
}

func newHeaders(scope headerScope) headers {
	return headers{scope: scope, underlying: map[string][]string{}}
}

func (h headers) clone() headers {
	clone := make(map[string][]string, len(h.underlying))
	for k, v := range h.underlying {
		clone[k] = sliceutil.Clone(v)
	}

	return headers{scope: h.scope, underlying: clone}
}

// fields returns a deep copy of the whole store.
func (h headers) fields() map[string][]string {
	return h.clone().underlying
}

func (h headers) values(name string) ([]string, bool) {
	v, ok := h.underlying[canonicalFieldName(name)]
	return v, ok
}

// prepare validates name against the registered set for the scope
// and tokenizes values into their final stored form.
func (h headers) prepare(name string, values []string) (canonical string, tokens []string, err error) {
	if !rule.IsValidToken(name) {
		return "", nil, errors.Errorf("field name %q is not a valid token", name)
	}

	canonical = canonicalFieldName(name)
	if err := h.assertRegistered(canonical); err != nil {
		return "", nil, err
	}

	tokens = make([]string, 0, len(values))
	for _, v := range values {
		tokens = append(tokens, tokenizeFieldValue(v)...)
	}

	return canonical, sliceutil.Map(tokens, filterFieldValue), nil
}

func (h headers) assertRegistered(canonical string) error {
	if _, ok := generalFieldNames[canonical]; ok {
		return nil
	}

	scoped := map[string]struct{}{}
	switch h.scope {
	case scopeRequest:
		scoped = requestFieldNames
	case scopeResponse:
		scoped = responseFieldNames
	}
	if _, ok := scoped[canonical]; ok {
		return nil
	}

	return errors.Errorf("unregistered field name: %q", canonical)
}

// canonicalFieldName maps a field name to its registered spelling:
// a leading protocol-environment prefix is stripped, underscores
// become hyphens and each hyphen segment is title-cased.
// "HTTP_HOST", "host" and "HOST" all canonicalize to "Host".
func canonicalFieldName(s string) string {
	s = strings.TrimPrefix(s, "HTTP_")

	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if c == '_' {
			c = '-'
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}

// tokenizeFieldValue splits a raw field value on commas outside
// double quotes. Tokens are trimmed of surrounding whitespace and
// empty tokens dropped; quotes are kept verbatim so joining the
// tokens back with "," reproduces an equivalent value.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.4-1
func tokenizeFieldValue(v string) []string {
	tokens := make([]string, 0)
	var buf strings.Builder

	quoted := false
	for _, part := range strings.Split(v, ",") {
		if quoted {
			// Comma inside quotes, write it back.
			buf.WriteByte(',')
		}

		for idx := 0; idx < len(part); idx++ {
			c := part[idx]
			if c == '"' {
				quoted = !quoted
			}

			buf.WriteByte(c)
		}

		if !quoted {
			tokens = appendFieldToken(tokens, buf.String())
			buf.Reset()
		}
	}

	if buf.Len() > 0 {
		// Quote didn't end properly. Keep the raw token.
		tokens = appendFieldToken(tokens, buf.String())
	}

	return tokens
}

func appendFieldToken(tokens []string, token string) []string {
	token = strings.TrimFunc(token, rule.IsWhitespace)
	if len(token) == 0 {
		return tokens
	}
	return append(tokens, token)
}

// filterFieldValue strips every byte outside printable ASCII
// (0x20-0x7E). Sanitization, not rejection: field values are
// advisory display data.
func filterFieldValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == rune(rule.SP) || rule.IsVchar(r) {
			return r
		}
		return -1
	}, v)
}

