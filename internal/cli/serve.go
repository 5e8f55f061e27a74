package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/escalopa/quran-recite-grader/internal/adapter/http"
	"github.com/escalopa/quran-recite-grader/internal/adapter/i18n"
	redisadapter "github.com/escalopa/quran-recite-grader/internal/adapter/redis"
	"github.com/escalopa/quran-recite-grader/internal/adapter/telegram"
	"github.com/escalopa/quran-recite-grader/internal/application"
	"github.com/escalopa/quran-recite-grader/internal/config"
	"github.com/escalopa/quran-recite-grader/internal/observability"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
	"github.com/escalopa/quran-recite-grader/internal/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.LoggingConfig())
	log := logging.WithComponent("serve")
	log.Info().Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildComponents(ctx, cfg, metrics.DefaultMetrics)
	if err != nil {
		return err
	}
	defer app.Close()

	obs := observability.NewServer(cfg.Metrics.Addr, app.checks...)
	obs.Start()

	errCh := make(chan error, 2)

	var api *http.Server
	if cfg.HTTP.Enabled {
		api = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.NewRouter(app.grading),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      90 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting API server")
			if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("api server: %w", err)
			}
		}()
	}

	var bot *telegram.Bot
	if cfg.Telegram.Enabled {
		bot, err = newBot(cfg, app)
		if err != nil {
			return err
		}
		go func() {
			log.Info().Msg("Starting bot")
			if err := bot.Start(ctx); err != nil {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err = <-errCh:
		log.Error().Err(err).Msg("Component failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if bot != nil {
		if err := bot.Stop(); err != nil {
			log.Warn().Err(err).Msg("Error stopping bot")
		}
	}
	if api != nil {
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Error stopping API server")
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Error stopping observability server")
	}

	log.Info().Msg("Stopped")
	return err
}

func newBot(cfg *config.Config, app *components) (*telegram.Bot, error) {
	if app.redis == nil {
		return nil, fmt.Errorf("telegram bot needs redis for sessions")
	}

	tr, err := i18n.NewI18n(cfg.App.LocalesDir)
	if err != nil {
		return nil, err
	}

	service := application.NewBotService(app.grading, redisadapter.NewFSM(app.redis), cfg.DefaultLanguage())
	return telegram.NewBot(cfg.Telegram.Token, service, tr, cfg.STT.SampleRateHz)
}
