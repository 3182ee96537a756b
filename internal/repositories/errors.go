package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// ConflictError is returned when a unique index rejects an insert or update.
// Field names the conflicting column ("username" or "email").
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

// AsConflict unwraps a ConflictError if err carries one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// mapUniqueViolation converts a pq unique-violation (23505) into a
// ConflictError keyed by constraint name. Any other error passes through.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return &ConflictError{Field: "username"}
	case "users_email_key":
		return &ConflictError{Field: "email"}
	default:
		return &ConflictError{Field: pqErr.Constraint}
	}
}
