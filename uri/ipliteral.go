package uri

import (
	"strconv"
	"strings"

	"httpmsg/util/rule"
)

// isIPv4 reports whether s is a dotted-quad IPv4 literal. Leading
// zeros are rejected so octets can't be read as octal.
func isIPv4(s string) bool {
	digits := strings.Split(s, ".")
	if len(digits) != 4 {
		return false
	}

	for _, digit := range digits {
		n, err := strconv.ParseUint(digit, 10, 8)
		if err != nil {
			return false
		}
		if digit[0] == '0' && !(n == 0 && len(digit) == 1) {
			// '00', '01'
			return false
		}
	}

	return true
}

// isIPv6 reports whether s (without brackets) is an IPv6 literal:
// colon-separated 16-bit hex groups, at most one "::" elision, and an
// optional trailing IPv4 literal standing in for the last 32 bits.
func isIPv6(s string) bool {
	before, after, elided := strings.Cut(s, "::")

	if !elided {
		n, ok := countV6Bytes(before, true)
		return ok && n == 16
	}

	n1, ok := countV6Bytes(before, false)
	if !ok {
		return false
	}
	n2, ok := countV6Bytes(after, true)
	if !ok {
		return false
	}

	// The elision must stand for at least 2 bytes.
	return n1+n2 <= 14
}

// countV6Bytes counts the address bytes a fragment contributes. An
// embedded IPv4 literal is only allowed as the final group of the
// whole address.
func countV6Bytes(s string, isLast bool) (int, bool) {
	if s == "" {
		return 0, true
	}

	h16s := strings.Split(s, ":")

	total := 0
	for idx, h16 := range h16s {
		if h16 == "" {
			// 0:::, 0::0::
			return 0, false
		}

		if _, err := strconv.ParseUint(h16, 16, 16); err == nil {
			total += 2
			continue
		}

		if !isLast || idx != len(h16s)-1 || !isIPv4(h16) {
			return 0, false
		}
		total += 4
	}

	return total, true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func isIPvFuture(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}

	// "v" 1*HEXDIG "." 1*(unreserved / sub-delims / ":")
	version, addr, found := strings.Cut(s[1:], ".")
	if !found || version == "" || addr == "" {
		return false
	}

	for _, c := range version {
		if !rule.IsHex(c) {
			return false
		}
	}

	for idx := 0; idx < len(addr); idx++ {
		c := addr[idx]
		if !(isUnreserved(c) || isSubDelim(c) || c == ':') {
			return false
		}
	}

	return true
}
