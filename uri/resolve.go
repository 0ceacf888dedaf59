package uri

import (
	"strings"

	"github.com/pkg/errors"
)

// RefResolver resolves URI references against a fixed base.
type RefResolver struct {
	base *URI
}

func NewRefResolver(base *URI) (*RefResolver, error) {
	if base.IsRelativeRef() {
		return nil, errors.New("base URI cannot be a relative reference")
	}
	return &RefResolver{base: base}, nil
}

// Resolve transforms ref into target form against the base.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(ref *URI) *URI {
	out := *ref

	switch {
	case out.scheme != "":

	case out.host != "":
		out.scheme = rr.base.scheme

	case out.path != "":
		out.scheme = rr.base.scheme
		out.userInfo, out.host, out.port = rr.base.userInfo, rr.base.host, rr.base.port
		if !strings.HasPrefix(out.path, "/") {
			out.path = mergePath(rr.base, &out)
		}

	default:
		out.scheme = rr.base.scheme
		out.userInfo, out.host, out.port = rr.base.userInfo, rr.base.host, rr.base.port
		out.path = rr.base.path
		if out.query == "" {
			out.query = rr.base.query
		}
	}

	out.path = removeDotSegments(out.path)
	out.elidePort()

	return &out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref *URI) string {
	if base.host != "" && base.path == "" {
		return "/" + ref.path
	}

	if idx := strings.LastIndexByte(base.path, '/'); idx >= 0 {
		return base.path[:idx+1] + ref.path
	}

	return ref.path
}

// segmentStack is the output buffer of removeDotSegments: segments are
// pushed as they are read and popped back off by "..".
type segmentStack []string

func (s *segmentStack) push(seg string) { *s = append(*s, seg) }

func (s *segmentStack) pop() {
	if n := len(*s); n > 0 {
		*s = (*s)[:n-1]
	}
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	var out segmentStack

	for len(path) > 0 {
		var found bool

		// A leading "../" or "./" is dropped.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// "/./" or a trailing "/." collapses to "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// "/../" or a trailing "/.." collapses to "/" and pops the
		// last output segment.
		if path, found = strings.CutPrefix(path, "/../"); found {
			out.pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			out.pop()
			path = "/"
			continue
		}

		// A bare "." or ".." is dropped.
		if path == ".." || path == "." {
			break
		}

		// Move the first segment, including its leading '/' if any, to
		// the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out.push(path[:idx])
		path = path[idx:]
	}

	return strings.Join(out, "")
}
