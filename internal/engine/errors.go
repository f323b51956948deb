package engine

// unavailableError signals an engine that was not built into this binary or
// whose native library cannot be loaded, so the HTTP layer can return 503.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing engine.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
