package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flashtans/internal/config"
	"flashtans/internal/migrate"
	"flashtans/internal/storage"
)

var (
	migrateFrom    string
	migrateTo      string
	migrateTimeout time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy products, customers and orders between store drivers",
	Long: `Copy every product, customer and order from one configured store into another,
keeping ids and timestamps. The source is left untouched; re-running overwrites
records with the same ids.

Example:
  flashtans migrate --from sqlite --to mongo`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.DriverSQLite, "source driver")
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.DriverMongo, "target driver")
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", 10*time.Minute, "overall timeout")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateFrom == migrateTo {
		return fmt.Errorf("--from and --to must differ, both are %q", migrateFrom)
	}
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
	defer cancel()

	srcCfg, dstCfg := cfg.Store, cfg.Store
	srcCfg.Driver, dstCfg.Driver = migrateFrom, migrateTo

	src, err := storage.Open(ctx, srcCfg)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", migrateFrom, err)
	}
	defer src.Close(ctx)
	dst, err := storage.Open(ctx, dstCfg)
	if err != nil {
		return fmt.Errorf("failed to open target %s: %w", migrateTo, err)
	}
	defer dst.Close(ctx)

	log.Info("migrate_start", "from", migrateFrom, "to", migrateTo)
	if _, err := migrate.Copy(ctx, src, dst, log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
