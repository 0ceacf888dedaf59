package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpmsg/stream"
)

func TestNewResponse(t *testing.T) {
	testcases := []struct {
		desc       string
		code       uint
		opts       ResponseOptions
		wantReason string
		wantErr    bool
	}{
		{
			desc:       "canonical reason",
			code:       200,
			wantReason: "OK",
		},
		{
			desc:       "explicit reason wins",
			code:       404,
			opts:       ResponseOptions{Reason: "Gone Fishing"},
			wantReason: "Gone Fishing",
		},
		{
			desc:       "unknown code keeps empty reason",
			code:       599,
			wantReason: "",
		},
		{
			desc:    "code below range",
			code:    99,
			wantErr: true,
		},
		{
			desc:    "code above range",
			code:    600,
			wantErr: true,
		},
		{
			desc:    "unsupported version",
			code:    200,
			opts:    ResponseOptions{Version: "0.9"},
			wantErr: true,
		},
		{
			desc:    "unregistered header",
			code:    200,
			opts:    ResponseOptions{Headers: map[string][]string{"X-Nope": {"1"}}},
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			r, err := NewResponse(tc.code, tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.code, r.StatusCode())
			assert.Equal(t, tc.wantReason, r.ReasonPhrase())
			assert.Equal(t, "1.1", r.ProtocolVersion())
			assert.NotNil(t, r.Body())
		})
	}
}

func TestResponseWithStatus(t *testing.T) {
	r, err := NewResponse(200, ResponseOptions{})
	require.NoError(t, err)

	t.Run("replaces code and reason", func(t *testing.T) {
		r2, err := r.WithStatus(404, "")
		require.NoError(t, err)

		assert.Equal(t, uint(404), r2.StatusCode())
		assert.Equal(t, "Not Found", r2.ReasonPhrase())
		assert.Equal(t, uint(200), r.StatusCode())
	})

	t.Run("explicit reason", func(t *testing.T) {
		r2, err := r.WithStatus(404, "Gone Fishing")
		require.NoError(t, err)
		assert.Equal(t, "Gone Fishing", r2.ReasonPhrase())
	})

	t.Run("identity", func(t *testing.T) {
		r2, err := r.WithStatus(200, "")
		require.NoError(t, err)
		assert.Same(t, r, r2)

		r3, err := r.WithStatus(200, "OK")
		require.NoError(t, err)
		assert.Same(t, r, r3)
	})

	t.Run("reason change alone is a change", func(t *testing.T) {
		r2, err := r.WithStatus(200, "Still Fine")
		require.NoError(t, err)

		assert.NotSame(t, r, r2)
		assert.Equal(t, "Still Fine", r2.ReasonPhrase())
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := r.WithStatus(42, "")
		assert.Error(t, err)
	})
}

func TestResponseHeaderScope(t *testing.T) {
	t.Run("response fields accepted", func(t *testing.T) {
		r, err := NewResponse(200, ResponseOptions{
			Headers: map[string][]string{
				"Set-Cookie": {"id=1"},
				"Etag":       {`"abc"`},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "id=1", r.HeaderLine("set-cookie"))
		assert.Equal(t, `"abc"`, r.HeaderLine("ETAG"))
	})

	t.Run("general fields accepted", func(t *testing.T) {
		r, err := NewResponse(200, ResponseOptions{
			Headers: map[string][]string{"Content-Type": {"text/html"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "text/html", r.HeaderLine("Content-Type"))
	})

	t.Run("request-only field rejected", func(t *testing.T) {
		_, err := NewResponse(200, ResponseOptions{
			Headers: map[string][]string{"Cookie": {"id=1"}},
		})
		assert.Error(t, err)
	})

	t.Run("response-only field rejected on requests", func(t *testing.T) {
		_, err := NewRequest("GET", "http://example.com/x", RequestOptions{
			Headers: map[string][]string{"Set-Cookie": {"id=1"}},
		})
		assert.Error(t, err)
	})
}

func TestResponseHeaderWithers(t *testing.T) {
	r, err := NewResponse(200, ResponseOptions{
		Headers: map[string][]string{"Vary": {"Accept"}},
	})
	require.NoError(t, err)

	t.Run("with header", func(t *testing.T) {
		r2, err := r.WithHeader("vary", "Accept-Encoding")
		require.NoError(t, err)

		assert.Equal(t, "Accept-Encoding", r2.HeaderLine("Vary"))
		assert.Equal(t, "Accept", r.HeaderLine("Vary"))
	})

	t.Run("with added header", func(t *testing.T) {
		r2, err := r.WithAddedHeader("Vary", "Accept-Encoding")
		require.NoError(t, err)
		assert.Equal(t, []string{"Accept", "Accept-Encoding"}, r2.Header("Vary"))
	})

	t.Run("identity", func(t *testing.T) {
		r2, err := r.WithHeader("VARY", "Accept")
		require.NoError(t, err)
		assert.Same(t, r, r2)
	})

	t.Run("without header", func(t *testing.T) {
		r2 := r.WithoutHeader("vary")
		assert.False(t, r2.HasHeader("Vary"))
		assert.True(t, r.HasHeader("Vary"))

		assert.Same(t, r2, r2.WithoutHeader("vary"))
	})

	t.Run("unregistered name", func(t *testing.T) {
		_, err := r.WithHeader("X-Nope", "1")
		assert.Error(t, err)
	})
}

func TestResponseWithProtocolVersion(t *testing.T) {
	r, err := NewResponse(200, ResponseOptions{})
	require.NoError(t, err)

	r2, err := r.WithProtocolVersion("1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0", r2.ProtocolVersion())

	r3, err := r.WithProtocolVersion("1.1")
	require.NoError(t, err)
	assert.Same(t, r, r3)

	_, err = r.WithProtocolVersion("9.9")
	assert.Error(t, err)
}

func TestResponseWithBody(t *testing.T) {
	r, err := NewResponse(200, ResponseOptions{})
	require.NoError(t, err)

	body := stream.FromString("<html></html>")

	r2, err := r.WithBody(body)
	require.NoError(t, err)
	assert.Same(t, body, r2.Body())

	r3, err := r2.WithBody(body)
	require.NoError(t, err)
	assert.Same(t, r2, r3)

	_, err = r.WithBody(nil)
	assert.Error(t, err)
}
