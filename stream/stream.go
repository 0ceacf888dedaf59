package stream

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	// ErrDetached is returned by operations on a stream whose handle
	// has been detached or closed.
	ErrDetached = errors.New("stream is detached")
	// ErrNotReadable is returned by reads on a write-only stream.
	ErrNotReadable = errors.New("stream is not readable")
	// ErrNotWritable is returned by writes on a read-only stream.
	ErrNotWritable = errors.New("stream is not writable")
	// ErrNotSeekable is returned by seeks when the handle does not
	// support repositioning.
	ErrNotSeekable = errors.New("stream is not seekable")
)

// Handle is the capability surface a Stream wraps. Handles that
// cannot actually reposition may return an error from Seek; the
// stream probes for that once at construction.
type Handle interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// Sizer is implemented by handles that know their total size.
type Sizer interface {
	Size() int64
}

// Stream wraps a Handle with mode-derived read/write capabilities,
// EOF tracking and a one-way detached state. The zero value is not
// usable; construct with New, Open or FromString.
type Stream struct {
	handle Handle
	mode   Mode
	target string

	seekable bool
	eof      bool
	detached bool
}

// New wraps an already-open handle. The mode declares the handle's
// read/write capabilities; seekability is probed from the handle
// itself.
func New(h Handle, mode string) (*Stream, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.New("handle is nil")
	}
	return newStream(h, m, ""), nil
}

func newStream(h Handle, m Mode, target string) *Stream {
	_, err := h.Seek(0, io.SeekCurrent)
	return &Stream{
		handle:   h,
		mode:     m,
		target:   target,
		seekable: err == nil,
	}
}

// Read reads up to len(p) bytes from the current position. It
// follows the io.Reader contract and returns io.EOF at end of
// stream, which also flips the stream's EOF flag.
func (s *Stream) Read(p []byte) (int, error) {
	if s.detached {
		return 0, ErrDetached
	}
	if !s.mode.Readable {
		return 0, ErrNotReadable
	}

	n, err := s.handle.Read(p)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

// Contents reads from the current position to the end of the stream.
func (s *Stream) Contents() (string, error) {
	if s.detached {
		return "", ErrDetached
	}
	if !s.mode.Readable {
		return "", ErrNotReadable
	}

	b, err := io.ReadAll(s.handle)
	if err != nil {
		return "", errors.Wrap(err, "reading stream")
	}

	s.eof = true
	return string(b), nil
}

// Write writes p at the current position.
func (s *Stream) Write(p []byte) (int, error) {
	if s.detached {
		return 0, ErrDetached
	}
	if !s.mode.Writable {
		return 0, ErrNotWritable
	}
	return s.handle.Write(p)
}

// WriteString writes v at the current position.
func (s *Stream) WriteString(v string) (int, error) {
	return s.Write([]byte(v))
}

// Seek repositions the stream. Whence is one of io.SeekStart,
// io.SeekCurrent or io.SeekEnd. A successful seek clears the EOF
// flag.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.detached {
		return 0, ErrDetached
	}
	if !s.seekable {
		return 0, ErrNotSeekable
	}

	pos, err := s.handle.Seek(offset, whence)
	if err != nil {
		return 0, errors.Wrap(err, "seeking stream")
	}

	s.eof = false
	return pos, nil
}

// Rewind seeks back to the start of the stream.
func (s *Stream) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Tell reports the current position.
func (s *Stream) Tell() (int64, error) {
	if s.detached {
		return 0, ErrDetached
	}
	if !s.seekable {
		return 0, ErrNotSeekable
	}

	pos, err := s.handle.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, errors.Wrap(err, "seeking stream")
	}
	return pos, nil
}

// EOF reports whether a read has hit the end of the stream since the
// last seek. A detached stream reports true.
func (s *Stream) EOF() bool {
	return s.detached || s.eof
}

// Size reports the total size of the underlying handle when it is
// known: the handle either reports it directly or is a file that can
// be stat-ed. The second return is false otherwise.
func (s *Stream) Size() (int64, bool) {
	if s.detached {
		return 0, false
	}

	switch h := s.handle.(type) {
	case Sizer:
		return h.Size(), true
	case interface{ Stat() (os.FileInfo, error) }:
		// Pipes and devices stat fine but report a meaningless size.
		info, err := h.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return 0, false
		}
		return info.Size(), true
	}
	return 0, false
}

// IsReadable reports whether reads are permitted. False once
// detached.
func (s *Stream) IsReadable() bool { return !s.detached && s.mode.Readable }

// IsWritable reports whether writes are permitted. False once
// detached.
func (s *Stream) IsWritable() bool { return !s.detached && s.mode.Writable }

// IsSeekable reports whether seeks are permitted. False once
// detached.
func (s *Stream) IsSeekable() bool { return !s.detached && s.seekable }

// Detach surrenders the underlying handle and leaves the stream
// permanently unusable. Closing the returned handle becomes the
// caller's responsibility. Returns nil if already detached.
func (s *Stream) Detach() Handle {
	if s.detached {
		return nil
	}

	h := s.handle
	s.handle = nil
	s.detached = true
	s.eof = false
	return h
}

// Close closes the underlying handle and detaches the stream.
// Closing an already-detached stream is a no-op.
func (s *Stream) Close() error {
	h := s.Detach()
	if h == nil {
		return nil
	}
	return errors.Wrap(h.Close(), "closing stream")
}

// Metadata describes the stream as it was constructed.
type Metadata struct {
	Target   string
	Mode     string
	Readable bool
	Writable bool
	Seekable bool
	EOF      bool
}

// Metadata reports the stream's target, mode and current
// capabilities.
func (s *Stream) Metadata() Metadata {
	return Metadata{
		Target:   s.target,
		Mode:     s.mode.String(),
		Readable: s.IsReadable(),
		Writable: s.IsWritable(),
		Seekable: s.IsSeekable(),
		EOF:      s.EOF(),
	}
}

// String renders the whole stream contents on a best-effort basis:
// seekable streams are rewound first, and any failure yields "".
// Diagnostic use only; prefer Contents for error-aware reads.
func (s *Stream) String() string {
	if !s.IsReadable() {
		return ""
	}
	if s.seekable {
		if err := s.Rewind(); err != nil {
			return ""
		}
	}

	v, err := s.Contents()
	if err != nil {
		return ""
	}
	return v
}
