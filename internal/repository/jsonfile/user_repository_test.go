package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure-vault/internal/domain"
)

func TestUserRepository_InitCreatesEmptyCollection(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "users.json")
	repo := NewUserRepository(path)

	require.NoError(t, repo.Init(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	accounts, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestUserRepository_InitKeepsExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	repo := NewUserRepository(path)
	acc := domain.Account{ID: "1", Name: "Ann", Email: "ann@x.com", PasswordHash: "h", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}

	require.NoError(t, repo.Save(ctx, []domain.Account{acc}))
	require.NoError(t, repo.Init(ctx))

	accounts, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Account{acc}, accounts)
}

func TestUserRepository_SaveReplacesCollection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewUserRepository(filepath.Join(dir, "users.json"))
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := []domain.Account{{ID: "1", Name: "Ann", Email: "ann@x.com", PasswordHash: "h", CreatedAt: now}}
	second := append(first, domain.Account{ID: "2", Name: "Bob", Email: "bob@x.com", PasswordHash: "h", CreatedAt: now})

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	accounts, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, accounts)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	info, err := os.Stat(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestUserRepository_LoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := NewUserRepository(path).Load(context.Background())

	assert.Error(t, err)
}
