package cache

// loadError signals that an asset could not be fetched or parsed.
// Retryable: a subsequent Acquire for the same id starts a fresh load.
type loadError struct {
	id    string
	cause error
}

func (e loadError) Error() string { return "load " + e.id + ": " + e.cause.Error() }

func (e loadError) Unwrap() error { return e.cause }

// IsLoadError reports whether err indicates a failed asset load.
func IsLoadError(err error) bool {
	_, ok := err.(loadError)
	return ok
}

// modelNotFoundError indicates an id absent from the model source.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}
