package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIPv4(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "example", input: "192.0.2.16", expected: true},
		{desc: "zeros", input: "0.0.0.0", expected: true},
		{desc: "max", input: "255.255.255.255", expected: true},
		{desc: "octet overflow", input: "256.0.0.1", expected: false},
		{desc: "leading zero", input: "192.0.02.16", expected: false},
		{desc: "too few parts", input: "192.0.2", expected: false},
		{desc: "too many parts", input: "192.0.2.16.1", expected: false},
		{desc: "not digits", input: "a.b.c.d", expected: false},
		{desc: "empty", input: "", expected: false},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, isIPv4(tc.input))
		})
	}
}

func TestIsIPv6(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "full", input: "2001:db8:0:0:0:0:2:1", expected: true},
		{desc: "elided", input: "2001:db8::2:1", expected: true},
		{desc: "loopback", input: "::1", expected: true},
		{desc: "unspecified", input: "::", expected: true},
		{desc: "v4 tail", input: "::ffff:192.0.2.16", expected: true},
		{desc: "no elision and too short", input: "2001:db8:7", expected: false},
		{desc: "elision stands for nothing", input: "1:2:3:4:5:6:7::8", expected: false},
		{desc: "double elision", input: "1::2::3", expected: false},
		{desc: "empty group", input: "1:::2", expected: false},
		{desc: "v4 in the middle", input: "::192.0.2.16:1", expected: false},
		{desc: "garbage", input: "nope", expected: false},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, isIPv6(tc.input))
		})
	}
}

func TestIsIPvFuture(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		expected bool
	}{
		{desc: "example", input: "v1.fe80", expected: true},
		{desc: "hex version", input: "vF.addr:port", expected: true},
		{desc: "multi digit version", input: "v1a.fe80", expected: true},
		{desc: "missing dot", input: "v1fe80", expected: false},
		{desc: "missing version", input: "v.fe80", expected: false},
		{desc: "disallowed byte", input: "v1.fe 80", expected: false},
		{desc: "too short", input: "v1.", expected: false},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, isIPvFuture(tc.input))
		})
	}
}
