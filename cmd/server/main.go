package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secure-vault/internal/auth"
	"secure-vault/internal/config"
	apphttp "secure-vault/internal/http"
	"secure-vault/internal/repository"
	"secure-vault/internal/repository/jsonfile"
	"secure-vault/internal/repository/sqlite"
	"secure-vault/internal/service"
	"secure-vault/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := buildUserRepository(cfg)
	if err != nil {
		logger.Fatalf("open user store: %v", err)
	}
	defer closeStore()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	issuer, err := auth.NewIssuer(
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		cfg.Auth.Issuer,
	)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	accountService := service.NewAccountService(userRepo, issuer, service.AccountOptions{
		FoldEmailCase: cfg.Accounts.FoldEmailCase,
		Logger:        logger,
	})

	storageSvc, bucket, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	fileService := service.NewFileService(storageSvc, service.FileOptions{
		Bucket:    bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLExpiry: time.Duration(cfg.Storage.URLExpiryMinutes) * time.Minute,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(accountService, fileService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// downloads stream for as long as the file takes; no write deadline
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (store: %s %s)", cfg.Server.Addr, cfg.Store.Driver, cfg.Store.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildUserRepository(cfg config.Config) (repository.AccountRepository, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewUserRepository(sqlite.NewKeyValueStore(db)), func() { db.Close() }, nil
	default:
		return jsonfile.NewUserRepository(cfg.Store.Path), func() {}, nil
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, string, error) {
	if cfg.Storage.Driver != "s3" {
		if err := os.MkdirAll(cfg.Storage.LocalDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create files dir: %w", err)
		}
		logger.Infof("serving files from %s", cfg.Storage.LocalDir)
		return storage.NewLocalService(cfg.Storage.LocalDir), "", nil
	}

	if cfg.Storage.Bucket == "" {
		return nil, "", fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), cfg.Storage.Bucket, nil
}
