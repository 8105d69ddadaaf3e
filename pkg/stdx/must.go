// Package stdx holds tiny generic helpers with no better home.
package stdx

// Must0 panics if the provided error is not nil.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v when err is nil and panics otherwise. Useful for wiring
// constructors in examples and tests where the error cannot occur.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
