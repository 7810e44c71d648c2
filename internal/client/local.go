package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"secure-vault/internal/domain"
	"secure-vault/internal/service"
)

type LocalOptions struct {
	// RegisterDelay and LoginDelay simulate a network round trip.
	RegisterDelay time.Duration
	LoginDelay    time.Duration
}

// LocalBackend runs the account store in process.
type LocalBackend struct {
	accounts service.AccountService
	files    service.FileService
	opts     LocalOptions
}

// NewLocalBackend returns a backend over accounts. files may be nil, leaving the catalog empty.
func NewLocalBackend(accounts service.AccountService, files service.FileService, opts LocalOptions) *LocalBackend {
	return &LocalBackend{accounts: accounts, files: files, opts: opts}
}

func (b *LocalBackend) Register(ctx context.Context, req RegisterRequest) (*domain.Session, error) {
	if err := delay(ctx, b.opts.RegisterDelay); err != nil {
		return nil, err
	}
	return b.accounts.Register(ctx, req.Name, req.Email, req.Password)
}

func (b *LocalBackend) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	if err := delay(ctx, b.opts.LoginDelay); err != nil {
		return nil, err
	}
	return b.accounts.Login(ctx, req.Email, req.Password)
}

func (b *LocalBackend) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return b.accounts.Verify(ctx, token)
}

func (b *LocalBackend) ListFiles(ctx context.Context, token string) ([]domain.FileItem, error) {
	if _, err := b.accounts.Verify(ctx, token); err != nil {
		return nil, err
	}
	if b.files == nil {
		return []domain.FileItem{}, nil
	}
	return b.files.List(ctx)
}

func (b *LocalBackend) Download(ctx context.Context, token, key string, w io.Writer) (int64, error) {
	if _, err := b.accounts.Verify(ctx, token); err != nil {
		return 0, err
	}
	if b.files == nil {
		return 0, service.ErrNotFound
	}

	d, err := b.files.Download(ctx, key)
	if err != nil {
		return 0, err
	}
	if d.Body == nil {
		return 0, fmt.Errorf("download %s: direct links are not supported by the local backend", key)
	}
	defer d.Body.Close()

	n, err := io.Copy(w, d.Body)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", key, err)
	}
	return n, nil
}

func delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Backend = (*LocalBackend)(nil)
