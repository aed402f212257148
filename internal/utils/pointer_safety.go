package utils

// Value dereferences v, returning the zero value for a nil pointer.
// Token payloads use optional pointer fields, so this comes up a lot.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}
