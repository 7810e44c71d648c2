package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or empty required field.
	ErrValidation = errors.New("validation failed")
	// ErrUserAlreadyExists is returned when registering an email that is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a session token cannot be verified.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNotFound is returned for unknown catalog entries.
	ErrNotFound = errors.New("not found")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage failure")
)

// StorageError wraps a failure of the underlying repository or object store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func validationErr(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}
