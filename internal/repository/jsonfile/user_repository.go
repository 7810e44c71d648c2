// Package jsonfile stores the account collection as a single JSON array file.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"secure-vault/internal/domain"
	"secure-vault/internal/repository"
)

type UserRepository struct {
	path string
}

func NewUserRepository(path string) repository.AccountRepository {
	return &UserRepository{path: path}
}

// Init creates the parent directory and an empty collection when the file is absent.
func (r *UserRepository) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create users dir: %w", err)
	}

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat users file: %w", err)
	}

	return r.Save(ctx, nil)
}

func (r *UserRepository) Load(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Account{}, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return repository.DecodeAccounts(data)
}

// Save replaces the whole file atomically, so readers never see a partial write.
func (r *UserRepository) Save(ctx context.Context, accounts []domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}

	data, err := repository.EncodeAccounts(accounts)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}
