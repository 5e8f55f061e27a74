package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/escalopa/quran-recite-grader/internal/adapter/postgres"
	"github.com/escalopa/quran-recite-grader/internal/config"
	"github.com/escalopa/quran-recite-grader/internal/observability/logging"
)

// newMigrateCmd applies the submissions schema.
func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.LoggingConfig())

	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}
	log := logging.WithComponent("migrate")
	log.Info().Msg("Migrations applied")
	return nil
}
