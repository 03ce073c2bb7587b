package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/phone_shop/pkg/db"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

var seedCities []string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Runs the schema migration for every table the shop uses and
inserts the given cities, skipping the ones that already exist.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringSliceVar(&seedCities, "cities", []string{"Moscow", "Saint Petersburg"}, "cities to seed")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "command", "migrate")
	slog.SetDefault(logger)

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer pkgdb.Close(db)

	if err := repo.Migrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if err := repo.SeedCities(ctx, db, seedCities); err != nil {
		return fmt.Errorf("failed to seed cities: %w", err)
	}

	logger.Info("migrated", "cities", len(seedCities))
	return nil
}
