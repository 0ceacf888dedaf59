package uri

import (
	"strings"

	"httpmsg/util/rule"

	"github.com/pkg/errors"
)

func containsCTL(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < ' ' || b == 0x7F {
			return true
		}
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func isUnreserved(c byte) bool {
	if rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)) {
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	if len(s) != 3 {
		return false
	}

	return s[0] == '%' &&
		rule.IsHex(rune(s[1])) &&
		rule.IsHex(rune(s[2]))
}

func assertValidScheme(scheme string) error {
	if len(scheme) == 0 {
		return errors.New("scheme is empty")
	}

	if !rule.IsAlpha(rune(scheme[0])) {
		return errors.New("scheme doesn't start with ALPHA")
	}

	for idx := 1; idx < len(scheme); idx++ {
		c := scheme[idx]
		switch {
		case rule.IsAlpha(rune(c)) || rule.IsDigit(rune(c)):
		case c == '+' || c == '-' || c == '.':
		default:
			return errors.New("scheme contains invalid byte")
		}
	}

	return nil
}

// assertSupportedScheme enforces the registered scheme set on top of
// the grammar. The empty scheme (relative reference) is allowed.
func assertSupportedScheme(scheme string) error {
	if scheme == "" {
		return nil
	}
	if err := assertValidScheme(scheme); err != nil {
		return err
	}
	if _, ok := schemePorts[scheme]; !ok {
		return errors.Errorf("unsupported scheme: %q", scheme)
	}
	return nil
}

// normalizeHost lowercases the host and brings it to stored form:
// IP literals are validated as-is, everything else is percent-encoded
// as a reg-name.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func normalizeHost(raw string) (string, error) {
	if raw == "" {
		// Empty value for reg-name is valid.
		return "", nil
	}
	if len(raw) > 255 {
		// Length is limited to 255.
		return "", errors.Errorf("host length exceeds limit(255): %d", len(raw))
	}

	host := strings.ToLower(raw)

	if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") {
			return "", errors.New("missing ']' in IP literal")
		}

		inner := host[1 : len(host)-1]
		if isIPv6(inner) || isIPvFuture(inner) {
			return host, nil
		}
		return "", errors.New("host is expected to be IP literal, but was malformed")
	}

	if isIPv4(host) {
		return host, nil
	}

	return escape(host, encodeHost), nil
}
