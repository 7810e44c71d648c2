package client

import (
	"context"
	"errors"
	"io"

	"secure-vault/internal/domain"
)

var (
	// ErrNoSession is returned by operations that need a signed-in client.
	ErrNoSession = errors.New("not signed in")
	// ErrUnavailable wraps transport failures talking to the remote backend.
	ErrUnavailable = errors.New("server unavailable")
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	// Confirm must repeat Password.
	Confirm string
}

type LoginRequest struct {
	Email    string
	Password string
}

// Backend is one realization of the account store as seen by the client.
type Backend interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Session, error)
	Login(ctx context.Context, req LoginRequest) (*domain.Session, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	ListFiles(ctx context.Context, token string) ([]domain.FileItem, error)
	Download(ctx context.Context, token, key string, w io.Writer) (int64, error)
}
