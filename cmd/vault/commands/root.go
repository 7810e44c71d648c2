package commands

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"secure-vault/internal/auth"
	"secure-vault/internal/client"
	"secure-vault/internal/config"
	"secure-vault/internal/repository/sqlite"
	"secure-vault/internal/service"
	"secure-vault/internal/storage"
)

// signingKeyName stores the generated local signing key when client.secret is unset.
const signingKeyName = "secure_vault_signing_key"

var (
	backendName string
	serverURL   string
	dataPath    string
	filesDir    string

	appClient *client.Client
	db        *sql.DB
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	defer func() {
		if db != nil {
			db.Close()
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vault",
		Short:         "SecureVault account and download client",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(cmd.Flags())
			if err != nil {
				return err
			}
			return setup(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&backendName, "backend", "", "account store backend: local or remote (default local)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL for the remote backend (default http://localhost:3001/api)")
	root.PersistentFlags().StringVar(&dataPath, "data", "", "local database path (default ~/.securevault/vault.db)")
	root.PersistentFlags().StringVar(&filesDir, "files-dir", "", "directory served as the catalog by the local backend")

	root.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd(), filesCmd(), downloadCmd())
	return root
}

func setup(ctx context.Context, cfg config.ClientConfig) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var err error
	db, err = sqlite.Open(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("open local data: %w", err)
	}
	kv := sqlite.NewKeyValueStore(db)
	sessions := sqlite.NewSessionRepository(kv)
	if err := sessions.Init(ctx); err != nil {
		return err
	}

	var backend client.Backend
	switch cfg.Backend {
	case "remote":
		backend = client.NewRemoteBackend(cfg.ServerURL, &http.Client{Timeout: cfg.Timeout})
	default:
		backend, err = localBackend(ctx, cfg, kv, logger)
		if err != nil {
			return err
		}
	}

	logger.Debugf("using %s backend", cfg.Backend)
	appClient = client.New(backend, sessions, logger)
	return nil
}

func localBackend(ctx context.Context, cfg config.ClientConfig, kv *sqlite.KeyValueStore, logger *logrus.Logger) (client.Backend, error) {
	secret, err := localSecret(ctx, cfg, kv)
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewIssuer(secret, 24*time.Hour, "secure-vault-local")
	if err != nil {
		return nil, err
	}

	users := sqlite.NewUserRepository(kv)
	if err := users.Init(ctx); err != nil {
		return nil, err
	}
	accounts := service.NewAccountService(users, issuer, service.AccountOptions{
		HashCost: bcrypt.DefaultCost,
		Logger:   logger,
	})

	var files service.FileService
	if cfg.FilesDir != "" {
		files = service.NewFileService(storage.NewLocalService(cfg.FilesDir), service.FileOptions{})
	}

	return client.NewLocalBackend(accounts, files, client.LocalOptions{
		RegisterDelay: cfg.RegisterDelay,
		LoginDelay:    cfg.LoginDelay,
	}), nil
}

func localSecret(ctx context.Context, cfg config.ClientConfig, kv *sqlite.KeyValueStore) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}

	stored, ok, err := kv.Get(ctx, signingKeyName)
	if err != nil {
		return nil, err
	}
	if ok && stored != "" {
		return hex.DecodeString(stored)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	if err := kv.Set(ctx, signingKeyName, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}
