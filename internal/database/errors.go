package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an id has no matching row.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStorageIO marks an underlying file or database failure.
	ErrStorageIO = errors.New("storage failure")

	// ErrClosed is the cause reported by a closed or unusable Database.
	ErrClosed = errors.New("database is closed")
)

// StorageError wraps a driver or filesystem failure. It matches both
// ErrStorageIO and the original cause with errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageIO, e.Err}
}

// Classify maps a gorm error onto the store's error taxonomy. Errors that
// are already classified pass through unchanged.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrStorageIO):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return &StorageError{Op: op, Err: err}
	}
}
