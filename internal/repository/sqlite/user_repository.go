package sqlite

import (
	"context"
	"fmt"

	"secure-vault/internal/domain"
	"secure-vault/internal/repository"
)

// UsersKey holds the JSON-encoded account collection.
const UsersKey = "secure_vault_users"

type UserRepository struct {
	kv *KeyValueStore
}

func NewUserRepository(kv *KeyValueStore) repository.AccountRepository {
	return &UserRepository{kv: kv}
}

func (r *UserRepository) Init(ctx context.Context) error {
	return r.kv.Init(ctx)
}

func (r *UserRepository) Load(ctx context.Context) ([]domain.Account, error) {
	value, ok, err := r.kv.Get(ctx, UsersKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Account{}, nil
	}
	return repository.DecodeAccounts([]byte(value))
}

func (r *UserRepository) Save(ctx context.Context, accounts []domain.Account) error {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	data, err := repository.EncodeAccounts(accounts)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, UsersKey, string(data)); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// Update runs fn on the stored collection under the database write lock.
// An error from fn aborts the transaction and is returned unchanged.
func (r *UserRepository) Update(ctx context.Context, fn func([]domain.Account) ([]domain.Account, error)) error {
	return r.kv.Update(ctx, UsersKey, func(value string, ok bool) (string, error) {
		accounts := []domain.Account{}
		if ok {
			decoded, err := repository.DecodeAccounts([]byte(value))
			if err != nil {
				return "", err
			}
			accounts = decoded
		}

		next, err := fn(accounts)
		if err != nil {
			return "", err
		}
		if next == nil {
			next = []domain.Account{}
		}
		data, err := repository.EncodeAccounts(next)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

var _ repository.AccountUpdater = (*UserRepository)(nil)
