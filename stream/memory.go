package stream

import (
	"io"

	"github.com/pkg/errors"
)

// memHandle is a seekable in-memory read-write handle. Writes past
// the end zero-fill the gap, like a sparse file.
type memHandle struct {
	data []byte
	pos  int64
}

func (m *memHandle) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memHandle) Write(p []byte) (int, error) {
	if gap := m.pos - int64(len(m.data)); gap > 0 {
		m.data = append(m.data, make([]byte, gap)...)
	}

	n := copy(m.data[m.pos:], p)
	if n < len(p) {
		m.data = append(m.data, p[n:]...)
	}

	m.pos += int64(len(p))
	return len(p), nil
}

func (m *memHandle) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.Errorf("invalid whence: %d", whence)
	}

	if abs < 0 {
		return 0, errors.New("negative position")
	}

	m.pos = abs
	return abs, nil
}

func (m *memHandle) Close() error { return nil }

func (m *memHandle) Size() int64 { return int64(len(m.data)) }

// FromString returns a memory-backed read-write seekable stream
// holding v, positioned at the start.
func FromString(v string) *Stream {
	h := &memHandle{data: []byte(v)}
	return newStream(h, Mode{Readable: true, Writable: true, s: "r+"}, "mem://")
}
