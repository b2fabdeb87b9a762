// Package stdx holds small generic helpers missing from the standard library.
package stdx

// Must0 panics if err is not nil. Use it only where an error means a
// programming defect.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, or panics if err is not nil.
//
//	v := stdx.Must1(entity.ValueOf(42))
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
