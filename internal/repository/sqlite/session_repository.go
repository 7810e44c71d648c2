package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"secure-vault/internal/domain"
	"secure-vault/internal/repository"
)

const (
	// TokenKey marks a signed-in client.
	TokenKey = "auth_token"
	// CurrentUserKey holds the signed-in user's public profile.
	CurrentUserKey = "secure_vault_current_user"
)

type storedUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type SessionRepository struct {
	kv *KeyValueStore
}

func NewSessionRepository(kv *KeyValueStore) repository.SessionRepository {
	return &SessionRepository{kv: kv}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	return r.kv.Init(ctx)
}

func (r *SessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	token, ok, err := r.kv.Get(ctx, TokenKey)
	if err != nil || !ok || token == "" {
		return nil, err
	}

	raw, ok, err := r.kv.Get(ctx, CurrentUserKey)
	if err != nil || !ok {
		return nil, err
	}

	var su storedUser
	if err := json.Unmarshal([]byte(raw), &su); err != nil {
		return nil, fmt.Errorf("decode current user: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, su.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode current user created_at: %w", err)
	}

	return &domain.Session{
		Token: token,
		User: domain.User{
			ID:        su.ID,
			Name:      su.Name,
			Email:     su.Email,
			CreatedAt: createdAt.UTC(),
		},
	}, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(storedUser{
		ID:        session.User.ID,
		Name:      session.User.Name,
		Email:     session.User.Email,
		CreatedAt: session.User.CreatedAt.UTC().Format(domain.TimestampLayout),
	})
	if err != nil {
		return fmt.Errorf("encode current user: %w", err)
	}

	return r.kv.SetMany(ctx, map[string]string{
		TokenKey:       session.Token,
		CurrentUserKey: string(raw),
	})
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, TokenKey, CurrentUserKey)
}
