package registry

// modelNotFoundError indicates a model id absent from the catalog.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// conflictError indicates a model already linked to a different building.
type conflictError struct{ modelID, linkedTo string }

func (e conflictError) Error() string {
	return "model " + e.modelID + " already linked to building " + e.linkedTo
}

// ErrConflict constructs a conflictError.
func ErrConflict(modelID, linkedTo string) error {
	return conflictError{modelID: modelID, linkedTo: linkedTo}
}

// IsConflict reports whether the error indicates a link conflict.
func IsConflict(err error) bool {
	_, ok := err.(conflictError)
	return ok
}

// placementNotFoundError indicates a model without a committed placement.
type placementNotFoundError struct{ modelID string }

func (e placementNotFoundError) Error() string { return "no placement for model: " + e.modelID }

// ErrPlacementNotFound constructs a missing-placement error for modelID.
func ErrPlacementNotFound(modelID string) error { return placementNotFoundError{modelID: modelID} }

// IsPlacementNotFound reports whether the error indicates a missing placement.
func IsPlacementNotFound(err error) bool {
	_, ok := err.(placementNotFoundError)
	return ok
}
