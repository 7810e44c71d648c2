package client

import (
	"context"
	"errors"

	"secure-vault/internal/service"
)

// Message flattens err into text for display.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrValidation):
		return err.Error()
	case errors.Is(err, service.ErrUserAlreadyExists):
		return "User already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, ErrNoSession):
		return "Please sign in"
	case errors.Is(err, service.ErrNotFound):
		return "File not found"
	case errors.Is(err, ErrUnavailable):
		return "Server unreachable, try again later"
	case errors.Is(err, service.ErrStorage):
		return "Server error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request cancelled"
	default:
		return err.Error()
	}
}
