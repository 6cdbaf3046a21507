package align

// validationError signals caller misuse: empty polygon selection,
// concurrent session request, malformed transform. No state change.
type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }

// ErrValidation constructs a validation error with the given message.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// IsValidation reports whether err indicates rejected input.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// stateError signals an operation invalid for the current controller state.
type stateError struct {
	op    string
	state State
}

func (e stateError) Error() string { return e.op + " not allowed in state " + string(e.state) }

// ErrState constructs a state error for op attempted in state.
func ErrState(op string, state State) error { return stateError{op: op, state: state} }

// IsState reports whether err indicates an operation issued in the wrong state.
func IsState(err error) bool {
	_, ok := err.(stateError)
	return ok
}

// persistenceError signals that the registry rejected a commit. The
// session stays in aligning so the transform is not lost.
type persistenceError struct{ cause error }

func (e persistenceError) Error() string { return "persist placement: " + e.cause.Error() }

func (e persistenceError) Unwrap() error { return e.cause }

// ErrPersistence wraps a registry failure surfaced by commit.
func ErrPersistence(cause error) error { return persistenceError{cause: cause} }

// IsPersistence reports whether err indicates a failed commit.
func IsPersistence(err error) bool {
	_, ok := err.(persistenceError)
	return ok
}
