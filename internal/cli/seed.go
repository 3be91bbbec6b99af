package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flashtans/internal/service"
	"flashtans/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample products when the catalog is empty",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer store.Close(ctx)

	n, err := service.NewProductService(store.Products()).SeedIfEmpty(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n == 0 {
		log.Info("catalog_not_empty", "store", cfg.Store.Driver)
		return nil
	}
	log.Info("catalog_seeded", "store", cfg.Store.Driver, "count", n)
	return nil
}
