package backends

import (
	"errors"

	"github.com/cedricziel/vtql/internal/engine"
)

var (
	// ErrInvalidQuery is returned when a backend cannot parse or execute a query
	ErrInvalidQuery = engine.ErrInvalidQuery

	// ErrNotImplemented is returned by backends that lack a capability
	ErrNotImplemented = errors.New("not implemented")

	// ErrAttachFailure is returned when a table cannot be attached
	ErrAttachFailure = engine.ErrAttachFailure

	// ErrDetachFailure is returned when a table cannot be detached
	ErrDetachFailure = engine.ErrDetachFailure
)
