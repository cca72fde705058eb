package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/parlorchat/parlor/auth"
	"github.com/parlorchat/parlor/config"
	parlorminio "github.com/parlorchat/parlor/minio"
	"github.com/parlorchat/parlor/postgres"
	"github.com/parlorchat/parlor/postgres/migrator"
	"github.com/parlorchat/parlor/realtime"
	"github.com/parlorchat/parlor/service"
	"github.com/parlorchat/parlor/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	errLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	}))
	infoLogger := slog.New(charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("open postgres connection pool: %w", err)
	}

	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	migrationStart := time.Now()
	infoLogger.Info("starting postgres migrations")

	if err := migrator.Migrate(context.Background(), dbPool, postgres.MigrationsFS); err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}

	infoLogger.Info("finished postgres migrations", "took", time.Since(migrationStart))

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	objects := parlorminio.New(context.Background(), minioClient, cfg.CleanupTimeout)
	go func() {
		for err := range objects.Errs() {
			errLogger.Error("minio error", "error", err)
		}
	}()

	bucketsStart := time.Now()
	infoLogger.Info("creating minio buckets")

	if err := objects.CreateReadOnlyBucket(context.Background(), service.AttachmentsBucket); err != nil {
		return fmt.Errorf("create minio bucket: %w", err)
	}

	infoLogger.Info("finished creating minio buckets", "took", time.Since(bucketsStart))

	tokens, err := auth.NewTokens(cfg.TokenKey, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token codec: %w", err)
	}

	svc := service.New(&service.Config{
		Postgres:            postgres.New(dbPool),
		Minio:               objects,
		Tokens:              tokens,
		TokenTTL:            cfg.TokenTTL,
		AttachmentURLPrefix: cfg.AttachmentURLPrefix,
		BaseCtx:             context.Background(),
		BackgroundTimeout:   cfg.BackgroundTimeout,
	})
	go func() {
		for err := range svc.Errs() {
			errLogger.Error("service error", "error", err)
		}
	}()

	gateway := &realtime.Gateway{
		Service: svc,
		Tokens:  tokens,
		Logger:  errLogger,
		BaseCtx: context.Background(),
	}
	handler := &web.Handler{
		Service:  svc,
		Tokens:   tokens,
		Realtime: gateway,
		Logger:   errLogger,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	infoLogger.Info("starting parlor server", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start parlor server: %w", err)
	}

	return svc.Close()
}
