package stream

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	t.Run("nil handle", func(t *testing.T) {
		_, err := New(nil, "r")
		assert.Error(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := New(&memHandle{}, "q")
		assert.Error(t, err)
	})

	t.Run("wraps handle", func(t *testing.T) {
		s, err := New(&memHandle{data: []byte("abc")}, "r")
		require.NoError(t, err)

		assert.True(t, s.IsReadable())
		assert.False(t, s.IsWritable())
		assert.True(t, s.IsSeekable())
	})
}

func TestFromString(t *testing.T) {
	s := FromString("hello")

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	v, err := s.Contents()
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	size, ok := s.Size()
	assert.True(t, ok)
	assert.Equal(t, int64(5), size)
}

func TestStreamReadWrite(t *testing.T) {
	s := FromString("abc")

	p := make([]byte, 2)
	n, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", string(p))

	n, err = s.Write([]byte("XY"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Rewind())

	v, err := s.Contents()
	require.NoError(t, err)
	assert.Equal(t, "abXY", v)
}

func TestStreamEOF(t *testing.T) {
	s := FromString("ab")
	assert.False(t, s.EOF())

	_, err := s.Contents()
	require.NoError(t, err)
	assert.True(t, s.EOF())

	require.NoError(t, s.Rewind())
	assert.False(t, s.EOF())
}

func TestStreamSeekTell(t *testing.T) {
	s := FromString("hello")

	pos, err := s.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	pos, err = s.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	pos, err = s.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = s.Seek(1, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)

	_, err = s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestStreamCapabilityErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	t.Run("write on read-only", func(t *testing.T) {
		s, err := Open(path, "r")
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrNotWritable)
		_, err = s.WriteString("x")
		assert.ErrorIs(t, err, ErrNotWritable)
	})

	t.Run("read on write-only", func(t *testing.T) {
		s, err := Open(path, "a")
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Read(make([]byte, 1))
		assert.ErrorIs(t, err, ErrNotReadable)
		_, err = s.Contents()
		assert.ErrorIs(t, err, ErrNotReadable)
	})
}

func TestStreamNotSeekable(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	s, err := New(r, "r")
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.IsSeekable())

	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrNotSeekable)
	_, err = s.Tell()
	assert.ErrorIs(t, err, ErrNotSeekable)
	assert.ErrorIs(t, s.Rewind(), ErrNotSeekable)
}

func TestStreamDetach(t *testing.T) {
	s := FromString("abc")

	h := s.Detach()
	require.NotNil(t, h)

	assert.False(t, s.IsReadable())
	assert.False(t, s.IsWritable())
	assert.False(t, s.IsSeekable())
	assert.True(t, s.EOF())

	_, err := s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Contents()
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Tell()
	assert.ErrorIs(t, err, ErrDetached)
	_, ok := s.Size()
	assert.False(t, ok)

	assert.Nil(t, s.Detach())
	assert.NoError(t, s.Close())

	// The handle stays usable by whoever detached it.
	p := make([]byte, 3)
	n, err := h.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(p[:n]))
}

func TestStreamClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	s, err := Open(path, "w")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrDetached)
}

func TestStreamSize(t *testing.T) {
	t.Run("file backed", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "f.txt")
		require.NoError(t, os.WriteFile(path, []byte("123456"), 0o644))

		s, err := Open(path, "r")
		require.NoError(t, err)
		defer s.Close()

		size, ok := s.Size()
		assert.True(t, ok)
		assert.Equal(t, int64(6), size)
	})

	t.Run("pipe has no size", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer w.Close()

		s, err := New(r, "r")
		require.NoError(t, err)
		defer s.Close()

		_, ok := s.Size()
		assert.False(t, ok)
	})
}

func TestStreamString(t *testing.T) {
	t.Run("rewinds before reading", func(t *testing.T) {
		s := FromString("hello")

		_, err := s.Read(make([]byte, 2))
		require.NoError(t, err)

		assert.Equal(t, "hello", s.String())
	})

	t.Run("not readable", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(filepath.Join(dir, "f.txt"), "w")
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, "", s.String())
	})

	t.Run("detached", func(t *testing.T) {
		s := FromString("hello")
		s.Detach()
		assert.Equal(t, "", s.String())
	})
}

func TestStreamMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	s, err := Open(path, "r")
	require.NoError(t, err)
	defer s.Close()

	md := s.Metadata()
	assert.Equal(t, path, md.Target)
	assert.Equal(t, "r", md.Mode)
	assert.True(t, md.Readable)
	assert.False(t, md.Writable)
	assert.True(t, md.Seekable)
	assert.False(t, md.EOF)
}

func TestMemHandleWriteBeyondEnd(t *testing.T) {
	h := &memHandle{data: []byte("ab")}

	_, err := h.Seek(4, io.SeekStart)
	require.NoError(t, err)

	_, err = h.Write([]byte("cd"))
	require.NoError(t, err)

	assert.Equal(t, []byte{'a', 'b', 0, 0, 'c', 'd'}, h.data)
}
