package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"secure-vault/internal/auth"
	apphttp "secure-vault/internal/http"
	"secure-vault/internal/repository/jsonfile"
	"secure-vault/internal/repository/sqlite"
	"secure-vault/internal/service"
	"secure-vault/internal/storage"
)

func newRemoteClient(t *testing.T) (*Client, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	gin.SetMode(gin.TestMode)

	repo := jsonfile.NewUserRepository(filepath.Join(dir, "server", "users.json"))
	require.NoError(t, repo.Init(ctx))
	issuer, err := auth.NewIssuer([]byte("server-secret"), time.Hour, "secure-vault")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	accounts := service.NewAccountService(repo, issuer, service.AccountOptions{HashCost: bcrypt.MinCost, Logger: logger})

	filesDir := filepath.Join(dir, "files")
	require.NoError(t, os.MkdirAll(filesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(filesDir, "Design_Assets_v2.zip"), []byte("PK"), 0o644))
	files := service.NewFileService(storage.NewLocalService(filesDir), service.FileOptions{})

	router := gin.New()
	apphttp.NewHandler(accounts, files, logger).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	db, err := sqlite.Open(filepath.Join(dir, "client", "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sessions := sqlite.NewSessionRepository(sqlite.NewKeyValueStore(db))
	require.NoError(t, sessions.Init(ctx))

	backend := NewRemoteBackend(srv.URL+"/api", srv.Client())
	return New(backend, sessions, logger), srv.URL
}

func TestRemoteClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newRemoteClient(t)

	reg, err := c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.False(t, reg.User.CreatedAt.IsZero())

	s, err := c.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", s.User.Name)
	assert.Equal(t, "ann@x.com", s.User.Email)
	assert.Equal(t, reg.User.ID, s.User.ID)

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.User, *u)

	items, err := c.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "zip", string(items[0].Type))

	var buf bytes.Buffer
	n, err := c.Download(ctx, items[0].ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "PK", buf.String())

	_, err = c.Download(ctx, "nope.zip", &buf)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, c.Logout(ctx))
	require.NoError(t, c.Logout(ctx))
	_, err = c.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRemoteClient_ErrorKinds(t *testing.T) {
	ctx := context.Background()
	c, _ := newRemoteClient(t)

	_, err := c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1", Confirm: "secret1"})
	require.NoError(t, err)

	_, err = c.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1", Confirm: "secret1"})
	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)

	_, err = c.Login(ctx, LoginRequest{Email: "ann@x.com", Password: "bad"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = c.Login(ctx, LoginRequest{Email: "ghost@x.com", Password: "bad"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRemoteBackend_ServerBypassesClientValidation(t *testing.T) {
	_, base := newRemoteClient(t)
	backend := NewRemoteBackend(base+"/api", nil)

	_, err := backend.Register(context.Background(), RegisterRequest{Name: "Ann", Email: "a@x.com"})

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestRemoteBackend_InvalidTokenOnTokenRoutes(t *testing.T) {
	_, base := newRemoteClient(t)
	backend := NewRemoteBackend(base+"/api", nil)

	_, err := backend.CurrentUser(context.Background(), "mock-jwt-token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = backend.ListFiles(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRemoteBackend_ServerErrorIsStorage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error"}`))
	}))
	defer srv.Close()

	_, err := NewRemoteBackend(srv.URL, srv.Client()).Login(context.Background(), LoginRequest{Email: "a", Password: "b"})

	assert.ErrorIs(t, err, service.ErrStorage)
	assert.Equal(t, "Server error", Message(err))
}

func TestRemoteBackend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemoteBackend(url, nil).Login(context.Background(), LoginRequest{Email: "a", Password: "b"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "Server unreachable, try again later", Message(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Please sign in", Message(ErrNoSession))
	assert.Equal(t, "File not found", Message(service.ErrNotFound))
	assert.Equal(t, assert.AnError.Error(), Message(assert.AnError))
}
