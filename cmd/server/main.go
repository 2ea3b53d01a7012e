package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/hangman/internal/api"
	"github.com/mcoot/hangman/internal/config"
	"github.com/mcoot/hangman/internal/factory"
	"github.com/mcoot/hangman/internal/services/auth"
	"github.com/mcoot/hangman/internal/services/notify"
	redisstorage "github.com/mcoot/hangman/internal/storage/redis"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, factoryConfig(cfg, logger), cfg.Port, logger)
	stop()
	if err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run serves until ctx is cancelled or a component fails. The application is
// always closed before run returns, so queued direct messages are flushed and
// storage handles released on every exit path.
func run(ctx context.Context, fc factory.Config, port int, logger *slog.Logger) (err error) {
	app, err := factory.New(fc)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("failed to close application", slog.String("error", closeErr.Error()))
			err = errors.Join(err, closeErr)
		}
	}()

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = port
	server := api.NewServer(app.Router(), serverConfig, logger)
	if err := server.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		return app.SummaryWorker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.WithoutCancel(gctx))
	})

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", fc.StorageType),
		slog.Int("max_attempts", fc.MaxAttempts),
	)

	return g.Wait()
}

// factoryConfig translates validated process configuration into factory settings
func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:            logger,
		StorageType:       cfg.StorageType,
		SQLitePath:        cfg.SQLitePath,
		WordProviderURL:   cfg.WordProviderURL,
		WordListPath:      cfg.WordListPath,
		WordFetchAttempts: cfg.WordFetchAttempts,
		MaxAttempts:       cfg.MaxAttempts,
		Twilio: notify.TwilioConfig{
			BaseURL:        cfg.TwilioBaseURL,
			AccountSID:     cfg.TwilioSID,
			AuthToken:      cfg.TwilioAuthToken,
			WhatsAppNumber: cfg.TwilioWhatsAppNumber,
		},
		SlackWebhookURL: cfg.SlackWebhookURL,
		Dispatcher:      notify.DispatcherConfig{SummaryDelay: cfg.SummaryDelay},
		Worker:          notify.WorkerConfig{PollInterval: cfg.SummaryPollInterval},
		RuntimeMetrics:  true,
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	}

	authCfg := auth.DefaultConfig()
	authCfg.SessionDuration = cfg.SessionDuration
	authCfg.VerificationCodeTTL = cfg.VerificationCodeTTL
	authCfg.AdminRegistrationCode = cfg.AdminRegistrationCode
	fc.AuthConfig = authCfg

	return fc
}
