package stream

import (
	"os"

	"github.com/pkg/errors"
)

// Mode is a parsed fopen-style open mode.
type Mode struct {
	Readable bool
	Writable bool

	flag int
	s    string
}

// ParseMode parses an fopen-style mode string: a base of "r", "w",
// "a", "x" or "c", an optional '+' making it read-write, and an
// optional 'b' or 't' which carries no meaning here.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Mode{}, errors.New("mode is empty")
	}

	m := Mode{s: s}

	switch s[0] {
	case 'r':
		m.Readable = true
		m.flag = os.O_RDONLY
	case 'w':
		m.Writable = true
		m.flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case 'a':
		m.Writable = true
		m.flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case 'x':
		m.Writable = true
		m.flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	case 'c':
		m.Writable = true
		m.flag = os.O_WRONLY | os.O_CREATE
	default:
		return Mode{}, errors.Errorf("unknown mode: %q", s)
	}

	for _, c := range s[1:] {
		switch c {
		case '+':
			if m.Readable && m.Writable {
				continue
			}
			m.Readable, m.Writable = true, true
			m.flag = m.flag&^(os.O_RDONLY|os.O_WRONLY) | os.O_RDWR
		case 'b', 't':
			// Binary/text distinction carries no meaning on POSIX.
		default:
			return Mode{}, errors.Errorf("unknown mode: %q", s)
		}
	}

	return m, nil
}

// Creates reports whether opening may create the target.
func (m Mode) Creates() bool { return m.flag&os.O_CREATE != 0 }

// Exclusive reports whether the target must not exist yet.
func (m Mode) Exclusive() bool { return m.flag&os.O_EXCL != 0 }

func (m Mode) String() string { return m.s }
