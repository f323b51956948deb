package console

import (
	"errors"
	"fmt"
	"syscall"

	"gojags/pkg/ndarray"
)

// Kind classifies an engine-reported failure.
type Kind int

const (
	// KindValidation covers syntax and semantic failures of the model or its data.
	KindValidation Kind = iota
	// KindState covers operations the engine rejects in its current lifecycle state.
	KindState
)

func (k Kind) String() string {
	if k == KindValidation {
		return "validation"
	}
	return "state"
}

// EngineError carries the diagnostic text captured while an operation ran.
type EngineError struct {
	Op   string
	Kind Kind
	Msg  string
}

func (e *EngineError) Error() string {
	if e.Msg == "" {
		return e.Op + ": engine reported failure"
	}
	return e.Op + ": " + e.Msg
}

// IOError reports a model file that could not be opened.
type IOError struct {
	Path string
	Code syscall.Errno
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("[Errno %d] %v: '%s'", int(e.Code), e.Err, e.Path)
}

func (e *IOError) Unwrap() error { return e.Err }

// LookupError reports a module, factory or RNG factory that is missing or inactive.
type LookupError struct {
	What      string
	Name      string
	NotActive bool
}

func (e *LookupError) Error() string {
	if e.NotActive {
		return e.What + " not active: " + e.Name
	}
	return e.What + " not found: " + e.Name
}

// VersionMismatchError reports an engine whose run-time version differs from
// the version the bridge was built against.
type VersionMismatchError struct {
	Built   string
	Runtime string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("incompatible engine version: compiled against version %s, but using version %s", e.Built, e.Runtime)
}

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// IsIO reports whether err is an IOError.
func IsIO(err error) bool {
	var e *IOError
	return errors.As(err, &e)
}

// IsValidation reports whether err is an engine validation failure.
func IsValidation(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Kind == KindValidation
}

// IsState reports whether err is an engine lifecycle rejection.
func IsState(err error) bool {
	var e *EngineError
	return errors.As(err, &e) && e.Kind == KindState
}

// IsEngine reports whether err carries engine diagnostics of any kind.
func IsEngine(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}

// IsLookup reports whether err is a LookupError (missing or inactive).
func IsLookup(err error) bool {
	var e *LookupError
	return errors.As(err, &e)
}

// IsNotActive reports whether err is a LookupError for an inactive factory.
func IsNotActive(err error) bool {
	var e *LookupError
	return errors.As(err, &e) && e.NotActive
}

// IsVersionMismatch reports whether err is a VersionMismatchError.
func IsVersionMismatch(err error) bool {
	var e *VersionMismatchError
	return errors.As(err, &e)
}

// IsConversion reports whether err is an array conversion failure.
func IsConversion(err error) bool { return ndarray.IsConversion(err) }
