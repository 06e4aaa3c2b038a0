package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tailorone/backend/internal/config"
	"github.com/tailorone/backend/internal/logger"
	"github.com/tailorone/backend/internal/repository"
)

var envFile string

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "tailorctl:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tailorctl",
		Short:         "TailorOne administrative commands",
		Long:          `tailorctl runs one-off maintenance tasks against the TailorOne database: schema migrations, admin seeding and the subscription expiry sweep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSeedAdminCommand(),
		newExpireSubscriptionsCommand(),
		newListUsersCommand(),
	)

	return rootCmd
}

// connect loads configuration and opens the database pool.
func connect(ctx context.Context) (*config.Config, *slog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, log, db, nil
}
