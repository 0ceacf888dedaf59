package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpmsg/stream"
)

func TestFileMapValidate(t *testing.T) {
	file := func(t *testing.T) *UploadedFile {
		t.Helper()

		u, err := New(stream.FromString("x"), Options{})
		require.NoError(t, err)
		return u
	}

	t.Run("flat and nested leaves", func(t *testing.T) {
		m := FileMap{
			"avatar": file(t),
			"docs": FileMap{
				"0": file(t),
				"1": file(t),
			},
		}
		assert.NoError(t, m.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, FileMap{}.Validate())
	})

	t.Run("nil leaf", func(t *testing.T) {
		m := FileMap{"avatar": (*UploadedFile)(nil)}

		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"avatar" is nil`)
	})

	t.Run("foreign type", func(t *testing.T) {
		m := FileMap{"docs": FileMap{"0": "not a file"}}

		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported type string")
		assert.Contains(t, err.Error(), `in "docs"`)
	})
}

func TestFileMapClone(t *testing.T) {
	u, err := New(stream.FromString("x"), Options{})
	require.NoError(t, err)

	orig := FileMap{"docs": FileMap{"0": u}}
	clone := orig.Clone()

	clone["docs"].(FileMap)["1"] = u

	assert.Len(t, orig["docs"].(FileMap), 1)
	assert.Len(t, clone["docs"].(FileMap), 2)

	assert.Nil(t, FileMap(nil).Clone())
}
