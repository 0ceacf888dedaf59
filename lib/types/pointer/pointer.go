package pointer

// To returns a pointer to v. Handy for optional scalar fields.
func To[T any](v T) *T { return &v }
