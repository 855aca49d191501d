package util

// Map returns f applied to every element of slice, in order.
func Map[T any, R any](slice []T, f func(T) R) []R {
	result := make([]R, len(slice))
	for i, v := range slice {
		result[i] = f(v)
	}
	return result
}

// Filter keeps the elements for which keep returns true. The result is nil
// when nothing is kept.
func Filter[T any](slice []T, keep func(T) bool) []T {
	var result []T
	for _, v := range slice {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}

// Find returns the first element matching match.
func Find[T any](slice []T, match func(T) bool) (T, bool) {
	for _, v := range slice {
		if match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
