package util

// Map applies a transformation function to each element of a slice and returns a new slice
// with the transformed values.
//
// Type Parameters:
//   - A: The type of elements in the input slice
//   - B: The type of elements in the output slice
//
// Parameters:
//   - coll: The input slice to transform
//   - mapper: Function that transforms each element and receives the element's index
//
// Returns:
//   - []B: A new slice containing the transformed elements
func Map[A any, B any](coll []A, mapper func(i A, index uint64) B) []B {
	out := make([]B, len(coll))
	for i, item := range coll {
		out[i] = mapper(item, uint64(i))
	}
	return out
}

// Find returns the first element in a slice that satisfies the provided criteria function.
//
// Type Parameters:
//   - A: The type of elements in the slice
//
// Parameters:
//   - coll: The input slice to search
//   - criteria: Function that determines whether an element matches
//
// Returns:
//   - A: The first matching element, or the zero value if no match is found
//   - bool: Whether a match was found
func Find[A any](coll []A, criteria func(i A) bool) (A, bool) {
	for _, item := range coll {
		if criteria(item) {
			return item, true
		}
	}
	var zero A
	return zero, false
}

// Filter returns the elements of a slice that satisfy the provided criteria function,
// preserving their order.
func Filter[A any](coll []A, criteria func(i A) bool) []A {
	out := make([]A, 0, len(coll))
	for _, item := range coll {
		if criteria(item) {
			out = append(out, item)
		}
	}
	return out
}
