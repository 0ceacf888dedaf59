package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tcs := []struct {
		desc string
		in   string

		readable  bool
		writable  bool
		creates   bool
		exclusive bool
		wantErr   bool
	}{
		{desc: "read only", in: "r", readable: true},
		{desc: "read write", in: "r+", readable: true, writable: true},
		{desc: "write truncate", in: "w", writable: true, creates: true},
		{desc: "write truncate read", in: "w+", readable: true, writable: true, creates: true},
		{desc: "append", in: "a", writable: true, creates: true},
		{desc: "append read", in: "a+", readable: true, writable: true, creates: true},
		{desc: "exclusive", in: "x", writable: true, creates: true, exclusive: true},
		{desc: "exclusive read", in: "x+", readable: true, writable: true, creates: true, exclusive: true},
		{desc: "create no truncate", in: "c", writable: true, creates: true},
		{desc: "create no truncate read", in: "c+", readable: true, writable: true, creates: true},
		{desc: "binary flag ignored", in: "rb", readable: true},
		{desc: "binary flag after plus", in: "rb+", readable: true, writable: true},
		{desc: "text flag ignored", in: "wt", writable: true, creates: true},
		{desc: "repeated plus", in: "r++", readable: true, writable: true},
		{desc: "empty", in: "", wantErr: true},
		{desc: "unknown base", in: "z", wantErr: true},
		{desc: "unknown flag", in: "r*", wantErr: true},
	}

	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			m, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.readable, m.Readable)
			assert.Equal(t, tc.writable, m.Writable)
			assert.Equal(t, tc.creates, m.Creates())
			assert.Equal(t, tc.exclusive, m.Exclusive())
			assert.Equal(t, tc.in, m.String())
		})
	}
}
