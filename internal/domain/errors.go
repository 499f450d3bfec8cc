package domain

import "errors"

var (
	// ErrValidation marks input that can never become processable.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup for a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state transition rejected by the current record state.
	ErrConflict = errors.New("conflict")
	// ErrStorage marks an underlying storage failure.
	ErrStorage = errors.New("storage error")
)
