package repository

import (
	"context"

	"secure-vault/internal/domain"
)

// SessionRepository keeps the client's current session between runs.
type SessionRepository interface {
	Init(ctx context.Context) error
	// Load returns nil when no session is stored.
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}
