package store

import "fmt"

// Error is a persistence failure the service layer translates into a
// domain error.
type Error struct {
	Message    string
	Constraint string // violated constraint name, when the driver reports one
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by message so a copy carrying a cause or constraint
// still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == e.Message
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Message: e.Message, Constraint: e.Constraint, Err: err}
}

// WithConstraint returns a copy naming the violated constraint.
func (e *Error) WithConstraint(name string) *Error {
	return &Error{Message: e.Message, Constraint: name, Err: e.Err}
}

// Sentinel errors.
var (
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = &Error{Message: "resource not found"}

	// ErrAlreadyExists is a unique constraint violation.
	ErrAlreadyExists = &Error{Message: "resource already exists"}

	// ErrReferenced is a foreign key violation: the row is still in use, or
	// points at a row that does not exist.
	ErrReferenced = &Error{Message: "resource is referenced"}
)
