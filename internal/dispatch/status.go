package dispatch

import "errors"

var (
	ErrMissingAction = errors.New("request is missing an action")
	ErrUnknownAction = errors.New("unknown action")
)

// Status is the wire form of an operation's outcome. Code 0 means success.
type Status struct {
	Code    int
	Message string
}

// StatusOf converts an error into a Status
func StatusOf(err error) Status {
	if err == nil {
		return Status{Code: 0, Message: "OK"}
	}
	return Status{Code: 1, Message: err.Error()}
}

// Ok reports whether the status is a success
func (s Status) Ok() bool {
	return s.Code == 0
}

// Err converts a failed status back into an error
func (s Status) Err() error {
	if s.Ok() {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError is a failure that arrived as a Status, e.g. over the wire
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return e.Status.Message
}
