package upload

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"httpmsg/lib/types/pointer"
	"httpmsg/stream"
	"httpmsg/util/rule"
)

// ErrAlreadyMoved is returned by stream and move operations once the
// file has been moved to its final location.
var ErrAlreadyMoved = errors.New("uploaded file already moved")

// Options carries the optional construction inputs for an uploaded
// file.
type Options struct {
	// Size is the byte count declared by the uploader. The actual
	// stream length wins whenever it can be determined.
	Size *int64
	// Error is the upload outcome code. Anything but CodeOK refuses
	// construction.
	Error Code
	// ClientFilename and ClientMediaType are untrusted values taken
	// verbatim from the client.
	ClientFilename  string
	ClientMediaType string
	// Registry resolves wrapper-scheme move targets. Nil means
	// stream.Default().
	Registry *stream.WrapperRegistry
	// Verify authenticates a path as a genuine upload before
	// construction and again before a rename-based move. Nil skips
	// the check, as when running outside a server.
	Verify func(path string) error
}

// UploadedFile describes one successfully uploaded file and owns its
// backing stream until MoveTo relocates the content. The lifecycle
// has exactly two states, pending and moved; a move is one-shot and
// irreversible.
type UploadedFile struct {
	stream *stream.Stream
	path   string

	size            *int64
	clientFilename  string
	clientMediaType string

	registry *stream.WrapperRegistry
	verify   func(path string) error

	moved bool
}

// New wraps an already-open stream as an uploaded file.
func New(s *stream.Stream, opts Options) (*UploadedFile, error) {
	if err := checkCode(opts.Error); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("stream is nil")
	}
	return newUploadedFile(s, "", opts), nil
}

// NewFromPath opens the file at path as an uploaded file. The path
// must pass the verifier, exist as a regular file and not be
// executable; the backing stream is opened immediately.
func NewFromPath(path string, opts Options) (*UploadedFile, error) {
	if err := checkCode(opts.Error); err != nil {
		return nil, err
	}
	if err := checkUploadPath(path, opts.Verify); err != nil {
		return nil, err
	}

	s, err := stream.Open(path, "r")
	if err != nil {
		return nil, err
	}
	return newUploadedFile(s, path, opts), nil
}

func newUploadedFile(s *stream.Stream, path string, opts Options) *UploadedFile {
	u := &UploadedFile{
		stream:          s,
		path:            path,
		clientFilename:  sanitizeFilename(opts.ClientFilename),
		clientMediaType: opts.ClientMediaType,
		registry:        opts.Registry,
		verify:          opts.Verify,
	}
	if u.registry == nil {
		u.registry = stream.Default()
	}

	if n, ok := s.Size(); ok {
		u.size = pointer.To(n)
	} else if opts.Size != nil {
		u.size = pointer.To(*opts.Size)
	}
	return u
}

func checkCode(c Code) error {
	if !c.Registered() {
		return errors.Errorf("unrecognized upload error code: %d", int(c))
	}
	if c != CodeOK {
		return NewUploadError(c)
	}
	return nil
}

func checkUploadPath(path string, verify func(string) error) error {
	if verify != nil {
		if err := verify(path); err != nil {
			return errors.Wrapf(err, "verifying %q", path)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("%q does not exist", path)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("%q is not a regular file", path)
	}
	if info.Mode().Perm()&0o111 != 0 {
		return errors.Errorf("%q is executable", path)
	}
	return nil
}

// sanitizeFilename strips every byte outside [A-Za-z0-9_.-]. Display
// use only; the result is never trusted as a path.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if rule.IsAlpha(r) || rule.IsDigit(r) || r == '_' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, name)
}

// Stream returns the owned stream. Fails once the file has been
// moved.
func (u *UploadedFile) Stream() (*stream.Stream, error) {
	if u.moved {
		return nil, ErrAlreadyMoved
	}
	return u.stream, nil
}

// Size reports the byte count, nil when unknown.
func (u *UploadedFile) Size() *int64 {
	if u.size == nil {
		return nil
	}
	return pointer.To(*u.size)
}

// Error reports the upload outcome code. Construction refuses every
// non-OK code, so this is CodeOK on any live instance.
func (u *UploadedFile) Error() Code { return CodeOK }

// ClientFilename returns the sanitized client-supplied file name.
func (u *UploadedFile) ClientFilename() string { return u.clientFilename }

// ClientMediaType returns the client-supplied media type, untrusted
// and unverified. DetectMediaType sniffs the actual content.
func (u *UploadedFile) ClientMediaType() string { return u.clientMediaType }

// Moved reports whether MoveTo has completed.
func (u *UploadedFile) Moved() bool { return u.moved }

// MoveTo relocates the uploaded content to target, exactly once.
// A plain path or file:// target must not exist yet and its parent
// directory must be writable; the temporary file is renamed into
// place, falling back to a byte copy across filesystems. Any other
// wrapper-scheme target is opened through the registry and written
// as a copy. On success the source stream is closed and the
// temporary file removed.
func (u *UploadedFile) MoveTo(target string) error {
	if u.moved {
		return ErrAlreadyMoved
	}
	if target == "" {
		return errors.New("target is empty")
	}

	scheme, rest, wrapped := stream.SplitScheme(target)

	var err error
	switch {
	case !wrapped:
		err = u.moveToPath(target)
	case scheme == "file":
		err = u.moveToPath(rest)
	default:
		err = u.moveToWrapper(target)
	}
	if err != nil {
		return err
	}

	u.moved = true
	return nil
}

func (u *UploadedFile) moveToPath(path string) error {
	if err := checkMoveTarget(path); err != nil {
		return err
	}

	if u.path != "" {
		if u.verify != nil {
			if err := u.verify(u.path); err != nil {
				return errors.Wrapf(err, "verifying %q", u.path)
			}
		}
		if err := os.Rename(u.path, path); err == nil {
			return u.stream.Close()
		}
		// Rename across filesystems fails; copy instead.
	}

	if err := u.copyInto(path); err != nil {
		return err
	}
	return u.discardSource()
}

func (u *UploadedFile) moveToWrapper(target string) error {
	if err := u.rewindSource(); err != nil {
		return err
	}

	dst, err := u.registry.Open(target, "w")
	if err != nil {
		return err
	}

	n, err := io.Copy(dst, u.stream)
	if err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "copying to %q", target)
	}
	if u.size != nil && n != *u.size {
		_ = dst.Close()
		return errors.Errorf("copied %d bytes to %q, want %d", n, target, *u.size)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return u.discardSource()
}

// copyInto writes the stream's full content to a freshly created
// file at path.
func (u *UploadedFile) copyInto(path string) error {
	if err := u.rewindSource(); err != nil {
		return err
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}

	n, err := io.Copy(dst, u.stream)
	if err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "copying to %q", path)
	}
	if u.size != nil && n != *u.size {
		_ = dst.Close()
		return errors.Errorf("copied %d bytes to %q, want %d", n, path, *u.size)
	}
	return errors.Wrapf(dst.Close(), "closing %q", path)
}

// discardSource closes the stream and removes the temporary file
// after its content has been copied elsewhere.
func (u *UploadedFile) discardSource() error {
	if err := u.stream.Close(); err != nil {
		return err
	}
	if u.path == "" {
		return nil
	}
	return errors.Wrapf(os.Remove(u.path), "removing %q", u.path)
}

func (u *UploadedFile) rewindSource() error {
	if !u.stream.IsSeekable() {
		return nil
	}
	return u.stream.Rewind()
}

func checkMoveTarget(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%q already exists", path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Errorf("parent directory %q does not exist", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("%q is not a directory", dir)
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return errors.Errorf("parent directory %q is not writable", dir)
	}
	return nil
}
