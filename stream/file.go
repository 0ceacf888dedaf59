package stream

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// openFile validates path against the mode before any descriptor is
// opened, so existence and permission failures surface here rather
// than from a later read or write.
func openFile(path string, m Mode) (Handle, error) {
	if err := checkPath(path, m); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, m.flag, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	return f, nil
}

func checkPath(path string, m Mode) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if m.Exclusive() {
			return errors.Errorf("%q already exists", path)
		}
		if info.IsDir() {
			return errors.Errorf("%q is a directory", path)
		}
		if m.Readable {
			if err := unix.Access(path, unix.R_OK); err != nil {
				return errors.Errorf("%q is not readable", path)
			}
		}
		if m.Writable {
			if err := unix.Access(path, unix.W_OK); err != nil {
				return errors.Errorf("%q is not writable", path)
			}
		}
		return nil

	case os.IsNotExist(err):
		if !m.Creates() {
			return errors.Errorf("%q does not exist", path)
		}
		return checkParentDir(path)

	default:
		return errors.Wrapf(err, "stat %q", path)
	}
}

func checkParentDir(path string) error {
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
