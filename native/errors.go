package native

import "errors"

var (
	// ErrNullInput is matched by every NullInputError.
	ErrNullInput = errors.New("null input")
	// ErrInvalidKey is matched by every InvalidKeyError.
	ErrInvalidKey = errors.New("invalid key")
	// ErrScriptException is matched by script exceptions returned from Try.
	ErrScriptException = errors.New("script exception")
)

// NullInputError reports that a required native object was absent.
type NullInputError struct {
	Param string
}

func (e *NullInputError) Error() string {
	return e.Param + " cannot be null"
}

func (e *NullInputError) Is(target error) bool { return target == ErrNullInput }

// InvalidKeyError reports a map key that cannot become a field name.
type InvalidKeyError struct {
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return e.Reason
}

func (e *InvalidKeyError) Is(target error) bool { return target == ErrInvalidKey }
