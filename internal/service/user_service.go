package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"secure-vault/internal/auth"
	"secure-vault/internal/domain"
	"secure-vault/internal/repository"
)

// AccountService is the account store: registration, credential checks, and token verification.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type AccountOptions struct {
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
	// FoldEmailCase compares emails case-insensitively. Stored emails keep their original case.
	FoldEmailCase bool
	Now           func() time.Time
	Logger        *logrus.Logger
}

type accountService struct {
	// mu serializes the load-check-append-save sequence of Register.
	mu       sync.Mutex
	accounts repository.AccountRepository
	tokens   TokenIssuer
	opts     AccountOptions

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccountService(accounts repository.AccountRepository, tokens TokenIssuer, opts AccountOptions) AccountService {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &accountService{
		accounts: accounts,
		tokens:   tokens,
		opts:     opts,
	}
}

func (s *accountService) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, validationErr("name")
	}
	if email == "" {
		return nil, validationErr("email")
	}
	if password == "" {
		return nil, validationErr("password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("account id: %w", err)
	}

	account := domain.Account{
		ID:           id.String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.opts.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.insert(ctx, account); err != nil {
		return nil, err
	}

	s.opts.Logger.WithField("account_id", account.ID).Info("account registered")
	return s.session(account.Public())
}

func (s *accountService) insert(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if updater, ok := s.accounts.(repository.AccountUpdater); ok {
		err := updater.Update(ctx, func(accounts []domain.Account) ([]domain.Account, error) {
			if _, taken := s.findByEmail(accounts, account.Email); taken {
				return nil, ErrUserAlreadyExists
			}
			return append(accounts, account), nil
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrUserAlreadyExists):
			return ErrUserAlreadyExists
		default:
			return storageErr("update accounts", err)
		}
	}

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return storageErr("load accounts", err)
	}
	if _, ok := s.findByEmail(accounts, account.Email); ok {
		return ErrUserAlreadyExists
	}

	accounts = append(accounts, account)
	if err := s.accounts.Save(ctx, accounts); err != nil {
		return storageErr("save accounts", err)
	}
	return nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return nil, storageErr("load accounts", err)
	}

	account, ok := s.findByEmail(accounts, email)
	if !ok {
		// keep unknown emails as slow as wrong passwords
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(account.Public())
}

func (s *accountService) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return nil, storageErr("load accounts", err)
	}
	for i := range accounts {
		if accounts[i].ID == claims.Subject {
			user := accounts[i].Public()
			return &user, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown account", ErrInvalidToken)
}

func (s *accountService) session(user domain.User) (*domain.Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.Session{User: user, Token: token}, nil
}

func (s *accountService) findByEmail(accounts []domain.Account, email string) (domain.Account, bool) {
	for _, acc := range accounts {
		if s.sameEmail(acc.Email, email) {
			return acc, true
		}
	}
	return domain.Account{}, false
}

func (s *accountService) sameEmail(a, b string) bool {
	if s.opts.FoldEmailCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func (s *accountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("secure-vault-dummy"), s.opts.HashCost)
	})
	return s.dummyHash
}
