package engine

import "errors"

var (
	// ErrInvalidQuery is returned when query text cannot be parsed or executed
	ErrInvalidQuery = errors.New("invalid query")

	// ErrAttachFailure is returned when a virtual table cannot be attached
	ErrAttachFailure = errors.New("attach failed")

	// ErrDetachFailure is returned when a virtual table cannot be detached
	ErrDetachFailure = errors.New("detach failed")
)
