package upload

import (
	"io"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
)

// sniffLen covers the longest magic-number offset the matchers look
// at.
const sniffLen = 261

// DetectMediaType sniffs the stream's leading bytes and returns the
// detected "type/subtype". ClientMediaType is client-supplied and
// untrusted; this inspects the actual content instead. The read
// position is restored afterwards. Content no matcher recognizes
// comes back as "application/octet-stream".
func (u *UploadedFile) DetectMediaType() (string, error) {
	if u.moved {
		return "", ErrAlreadyMoved
	}

	pos, err := u.stream.Tell()
	if err != nil {
		return "", err
	}
	if err := u.stream.Rewind(); err != nil {
		return "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.stream, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", errors.Wrap(err, "reading stream head")
	}

	if _, err := u.stream.Seek(pos, io.SeekStart); err != nil {
		return "", err
	}

	t, err := filetype.Match(head[:n])
	if err != nil {
		return "", errors.Wrap(err, "matching content type")
	}
	if t == filetype.Unknown {
		return "application/octet-stream", nil
	}
	return t.MIME.Value, nil
}
