package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hongminglow/health-risk-be/internal/auth"
	"github.com/hongminglow/health-risk-be/internal/config"
	"github.com/hongminglow/health-risk-be/internal/identity"
	"github.com/hongminglow/health-risk-be/internal/logging"
	"github.com/hongminglow/health-risk-be/internal/mail"
	"github.com/hongminglow/health-risk-be/internal/records"
	"github.com/hongminglow/health-risk-be/internal/risk"
	"github.com/hongminglow/health-risk-be/internal/server"
	"github.com/hongminglow/health-risk-be/internal/storage"
	"github.com/hongminglow/health-risk-be/internal/storage/postgres"
	"github.com/hongminglow/health-risk-be/internal/storage/sqlite"
	"github.com/hongminglow/health-risk-be/internal/throttle"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	registry, err := risk.Load(ctx, cfg.ModelRegistry, risk.S3Options{
		Region:   cfg.S3Region,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("load model registry: %w", err)
	}
	logger.Info("model registry loaded", "source", cfg.ModelRegistry, "models", registry.Names())

	sender := mail.NewSendGridSender(mail.SendGridConfig{
		APIKey:      cfg.SendGridAPIKey,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		FrontendURL: cfg.FrontendURL,
		LinkTTL:     cfg.VerificationTTL,
	}, logger)
	if !sender.Enabled() {
		logger.Warn("SENDGRID_API_KEY not set; verification links are logged instead of emailed")
	}
	var mailer mail.Sender = sender
	if cfg.MailRatePerSecond > 0 {
		mailer = mail.NewPaced(sender, rate.NewLimiter(rate.Limit(cfg.MailRatePerSecond), 1), cfg.FrontendURL)
	}

	resend, closeResend, err := openResendLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init resend throttle: %w", err)
	}
	defer closeResend()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	identities := identity.NewService(store, tokens, mailer, identity.Options{
		VerificationTTL: cfg.VerificationTTL,
		Resend:          resend,
		Logger:          logger,
	})
	ensemble := risk.New(registry)
	recordSvc := records.NewService(store, ensemble)

	srv := server.New(cfg, server.Deps{
		Identity:      identities,
		Authenticator: identities,
		Records:       recordSvc,
		Models:        ensemble.Models(),
		Logger:        logger,
		StartedAt:     time.Now(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("health risk backend listening", "addr", cfg.HTTPAddress(), "storage", cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	default:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	}
}

func openResendLimiter(ctx context.Context, cfg config.Config) (throttle.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return throttle.NewMemory(cfg.ResendLimit, cfg.ResendWindow), func() {}, nil
	}
	client, err := throttle.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return throttle.NewRedis(client, "resend:", cfg.ResendLimit, cfg.ResendWindow), func() { _ = client.Close() }, nil
}
