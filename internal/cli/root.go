// Package cli команды flashtans: serve, migrate, seed.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"flashtans/internal/config"
	"flashtans/internal/obs"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "flashtans",
	Short: "Flash Tans storefront: catalog, cart and order placement",
	Long: `flashtans serves the Flash Tans storefront and its JSON API.

Without a subcommand it behaves like "flashtans serve". Storage is chosen by
store.driver (memory, sqlite, mysql, mongo); see config.yaml or FLASHTANS_* variables.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ./config.yaml if present)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap загружает конфиг и строит логгер
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := obs.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	return cfg, log, nil
}
