// Package client is the single entry point a presentation layer uses to register, sign in,
// sign out, and reach the download catalog, whichever account store backend is configured.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"secure-vault/internal/domain"
	"secure-vault/internal/repository"
	"secure-vault/internal/service"
)

type Client struct {
	backend  Backend
	sessions repository.SessionRepository
	logger   *logrus.Logger
}

func New(backend Backend, sessions repository.SessionRepository, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{backend: backend, sessions: sessions, logger: logger}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.Session, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, fmt.Errorf("%w: name is required", service.ErrValidation)
	case strings.TrimSpace(req.Email) == "":
		return nil, fmt.Errorf("%w: email is required", service.ErrValidation)
	case req.Password == "":
		return nil, fmt.Errorf("%w: password is required", service.ErrValidation)
	case req.Password != req.Confirm:
		return nil, fmt.Errorf("%w: passwords do not match", service.ErrValidation)
	case utf8.RuneCountInString(req.Password) < MinPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", service.ErrValidation, MinPasswordLength)
	}

	session, err := c.backend.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.remember(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	switch {
	case strings.TrimSpace(req.Email) == "":
		return nil, fmt.Errorf("%w: email is required", service.ErrValidation)
	case req.Password == "":
		return nil, fmt.Errorf("%w: password is required", service.ErrValidation)
	}

	session, err := c.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.remember(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout forgets the local session. Tokens already issued stay valid until they expire.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return &service.StorageError{Op: "clear session", Err: err}
	}
	return nil
}

// CurrentUser re-verifies the stored token with the backend. A rejected token is forgotten.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	session, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := c.backend.CurrentUser(ctx, session.Token)
	if err != nil {
		c.dropRejected(ctx, err)
		return nil, err
	}
	return user, nil
}

func (c *Client) ListFiles(ctx context.Context) ([]domain.FileItem, error) {
	session, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	items, err := c.backend.ListFiles(ctx, session.Token)
	if err != nil {
		c.dropRejected(ctx, err)
		return nil, err
	}
	return items, nil
}

func (c *Client) Download(ctx context.Context, key string, w io.Writer) (int64, error) {
	session, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	n, err := c.backend.Download(ctx, session.Token, key, w)
	if err != nil {
		c.dropRejected(ctx, err)
	}
	return n, err
}

// dropRejected forgets the stored session when the backend refused its token.
func (c *Client) dropRejected(ctx context.Context, err error) {
	if !errors.Is(err, service.ErrInvalidToken) {
		return
	}
	c.logger.WithError(err).Debug("dropping rejected session")
	if clearErr := c.sessions.Clear(ctx); clearErr != nil {
		c.logger.WithError(clearErr).Warn("clear session")
	}
}

func (c *Client) session(ctx context.Context) (*domain.Session, error) {
	session, err := c.sessions.Load(ctx)
	if err != nil {
		return nil, &service.StorageError{Op: "load session", Err: err}
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

func (c *Client) remember(ctx context.Context, session domain.Session) error {
	if err := c.sessions.Save(ctx, session); err != nil {
		return &service.StorageError{Op: "save session", Err: err}
	}
	return nil
}
