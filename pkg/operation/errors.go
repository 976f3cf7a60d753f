package operation

import "errors"

var (
	// ErrOperationNotFound is returned when no operation exists for the ID.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrOperationTerminal is returned when a step result arrives for an
	// operation that already finished.
	ErrOperationTerminal = errors.New("operation already reached a terminal state")

	// ErrUnexpectedMethod is returned when a step result does not match the
	// method the operation is waiting for.
	ErrUnexpectedMethod = errors.New("step result does not match pending auth method")
)
