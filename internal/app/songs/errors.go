package songs

import "fmt"

// ValidationError reports a required field that was missing or blank.
// It is returned before any gateway call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceFailure wraps any gateway error. Not-found is not told apart
// from other failures here; callers may still inspect the cause with errors.Is.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error {
	return e.Err
}

func required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}
