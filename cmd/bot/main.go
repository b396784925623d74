package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/postgres"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "Warden is a Discord bot for support tickets",
		SilenceUsage: true,
		RunE:         runBot,
	}

	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing application: %w", err)
	}

	a.Log().Info("Starting application")
	if err := a.Run(ctx); err != nil {
		a.Log().Error("Error running application", slog.String(logging.KeyError, err.Error()))
		return err
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run the postgres schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(postgres.MigrateUp), string(postgres.MigrateDown), string(postgres.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := postgres.MigrateUp
			if len(args) == 1 {
				direction = postgres.MigrationDirection(args[0])
			}
			return runMigrate(cmd.Context(), direction)
		},
	}
}

func runMigrate(ctx context.Context, direction postgres.MigrationDirection) error {
	storeCfg, err := config.LoadStore()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if storeCfg.Driver != config.StorePostgres {
		return fmt.Errorf("migrations only apply to the %s store, %s is %q", config.StorePostgres, config.EnvStoreDriver, storeCfg.Driver)
	}

	pool, err := postgres.Connect(ctx, storeCfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("error connecting to postgres: %w", err)
	}
	defer pool.Close()

	return postgres.Migrate(ctx, pool, direction)
}
