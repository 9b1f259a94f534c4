// Package app wires the application together: storage, mail gateway,
// generation client, background worker and the HTTP API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxzi/splitmail/internal/api"
	"github.com/foxzi/splitmail/internal/campaign"
	"github.com/foxzi/splitmail/internal/config"
	"github.com/foxzi/splitmail/internal/db"
	"github.com/foxzi/splitmail/internal/genai"
	"github.com/foxzi/splitmail/internal/mailer"
	"github.com/foxzi/splitmail/internal/metrics"
	"github.com/foxzi/splitmail/internal/repository"
	"github.com/foxzi/splitmail/internal/schedule"
	"github.com/foxzi/splitmail/internal/worker"
)

// App is the main application
type App struct {
	config    *config.Config
	database  *db.DB
	store     *schedule.Store
	apiServer *api.Server
	worker    *worker.Worker
	logger    *slog.Logger
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := schedule.NewStore(cfg.Batches.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch store: %w", err)
	}

	sender, err := buildSender(cfg.Mailer, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	campRepo := repository.NewCampaignRepository(database.DB)
	recipients := repository.NewRecipientRepository(database.DB)

	svc := campaign.NewService(
		campRepo,
		recipients,
		genai.NewClient(cfg.GenAI),
		sender,
		mailer.TrackingConfig{BaseURL: cfg.Server.BaseURL},
		m,
		logger,
	)

	return &App{
		config:    cfg,
		database:  database,
		store:     store,
		apiServer: api.NewServer(svc, campRepo, recipients, store, &cfg.Server, m, logger),
		worker:    worker.New(store, sender, m, logger, cfg.Batches.PollInterval),
		logger:    logger,
	}, nil
}

// buildSender picks the mail gateway from configuration
func buildSender(cfg config.MailerConfig, logger *slog.Logger) (mailer.Sender, error) {
	switch cfg.Provider {
	case "resend":
		from := cfg.FromEmail
		if cfg.FromName != "" {
			from = cfg.FromName + " <" + cfg.FromEmail + ">"
		}
		return mailer.NewResendSender(cfg.APIKey, from, logger), nil
	case "noop", "":
		return mailer.NewNoopSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mailer provider: %q", cfg.Provider)
	}
}

// Run starts the worker and the API server, then blocks until a signal
// arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting splitmail",
		"api_addr", a.config.Server.ListenAddr,
		"base_url", a.config.Server.BaseURL,
		"mailer", a.config.Mailer.Provider,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.worker.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.shutdown()
		return err
	}

	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown failed", "error", err)
	}

	a.worker.Stop()

	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close batch store", "error", err)
	}
	if err := a.database.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}

	a.logger.Info("splitmail stopped")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
