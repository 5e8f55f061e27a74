// Package cli wires the grader's components behind cobra commands.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "grader",
		Short:         "Quran recitation grading service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newGradeCmd(&configPath))
	cmd.AddCommand(newMatchCmd(&configPath))
	cmd.AddCommand(newCorpusCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	return cmd
}
