package upload

import "github.com/pkg/errors"

// FileMap is the uploaded-file tree of a request, keyed by form
// field name. A value is either a *UploadedFile leaf or a nested
// FileMap for array-style fields.
type FileMap map[string]any

// Validate walks the tree and rejects any value that is neither a
// *UploadedFile nor a nested FileMap. Nil leaves are rejected too.
func (m FileMap) Validate() error {
	for key, v := range m {
		switch f := v.(type) {
		case *UploadedFile:
			if f == nil {
				return errors.Errorf("uploaded file %q is nil", key)
			}
		case FileMap:
			if err := f.Validate(); err != nil {
				return errors.Wrapf(err, "in %q", key)
			}
		default:
			return errors.Errorf("uploaded file %q has unsupported type %T", key, v)
		}
	}
	return nil
}

// Clone copies the tree structure. Leaves are shared; uploaded files
// are single-owner values that cannot be duplicated.
func (m FileMap) Clone() FileMap {
	if m == nil {
		return nil
	}

	out := make(FileMap, len(m))
	for key, v := range m {
		if nested, ok := v.(FileMap); ok {
			out[key] = nested.Clone()
			continue
		}
		out[key] = v
	}
	return out
}
