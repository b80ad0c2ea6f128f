package common

import "cmp"

// Coalesce returns the first value that is not the zero value of T. Config defaults use it
// for fields where zero means unset.
//
// Parameters:
//   - values: candidates in order of preference
//
// Returns:
//   - T: the first non-zero candidate, or the zero value if there is none
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to [lo, hi]. The result is lo when the bounds are inverted.
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(min(v, hi), lo)
}
