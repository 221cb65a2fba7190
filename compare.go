package syncpt

// isBetween reports whether a <= b < c using wrapping comparison.
func isBetween(a, b, c uint32) bool {
	return b-a < c-a
}

// WrappingCompare reports whether x has reached or passed y in circular
// 32-bit arithmetic, i.e. x >= y (mod 1 << 32).
//
// It is true exactly when x lies in the half-open window [y, y+2^31).
// Comparisons stay valid across one wrap of the counter space, but not two:
// a counter may lap a stale threshold at most once before the comparison
// inverts.
func WrappingCompare(x, y uint32) bool {
	return isBetween(y, x, 1<<31+y)
}
