package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"secure-vault/internal/domain"
)

// AccountRepository persists the account collection as a whole.
// Save replaces the stored collection atomically.
type AccountRepository interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, accounts []domain.Account) error
}

// AccountUpdater is implemented by repositories that can run a load-modify-save of the
// collection as one transaction, serialized even against other processes.
type AccountUpdater interface {
	Update(ctx context.Context, fn func(accounts []domain.Account) ([]domain.Account, error)) error
}

type accountRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

// EncodeAccounts serializes accounts as an indented JSON array.
func EncodeAccounts(accounts []domain.Account) ([]byte, error) {
	records := make([]accountRecord, len(accounts))
	for i, acc := range accounts {
		records[i] = accountRecord{
			ID:           acc.ID,
			Name:         acc.Name,
			Email:        acc.Email,
			PasswordHash: acc.PasswordHash,
			CreatedAt:    acc.CreatedAt.UTC().Format(domain.TimestampLayout),
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode accounts: %w", err)
	}
	return data, nil
}

// DecodeAccounts parses a JSON array produced by EncodeAccounts. Blank input is an empty collection.
func DecodeAccounts(data []byte) ([]domain.Account, error) {
	if strings.TrimSpace(string(data)) == "" {
		return []domain.Account{}, nil
	}

	var records []accountRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]domain.Account, len(records))
	for i, rec := range records {
		createdAt, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode account %s created_at: %w", rec.ID, err)
		}
		accounts[i] = domain.Account{
			ID:           rec.ID,
			Name:         rec.Name,
			Email:        rec.Email,
			PasswordHash: rec.PasswordHash,
			CreatedAt:    createdAt.UTC(),
		}
	}
	return accounts, nil
}
