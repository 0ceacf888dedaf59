// Package sliceutil holds small generic slice helpers.
package sliceutil

// Map applies f to every element of v, producing a new slice.
func Map[From, To any](v []From, f func(From) To) []To {
	out := make([]To, 0, len(v))
	for _, e := range v {
		out = append(out, f(e))
	}
	return out
}

// Clone returns a copy of v sharing no backing storage with it.
func Clone[T any](v []T) []T {
	out := make([]T, len(v))
	copy(out, v)
	return out
}

// Equal reports whether a and b hold the same elements in the same
// order.
func Equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
